package ollama

import (
	"context"
	"fmt"
	"io"
	"time"
)

// EnsureReady checks that Ollama is running and the chat and embedding models
// are available, pulling missing ones with progress written to w. After both
// models are present it warms up the chat model so the first question doesn't
// pay the cold-load penalty. An empty model name is skipped, which lets
// completion-only deployments check just the embedding model. Returns a
// non-nil error if Ollama is unreachable.
func EnsureReady(ctx context.Context, c *Client, chatModel, embedModel string, w io.Writer) error {
	if !c.IsRunning(ctx) {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	for _, model := range []string{chatModel, embedModel} {
		if model == "" {
			continue
		}
		if c.HasModel(ctx, model) {
			fmt.Fprintf(w, "model %s: ready\n", model)
			continue
		}

		fmt.Fprintf(w, "model %s: pulling...\n", model)
		err := c.PullModel(ctx, model, func(p PullProgress) {
			if p.Total > 0 {
				pct := float64(p.Completed) / float64(p.Total) * 100
				fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, pct)
			} else {
				fmt.Fprintf(w, "  %s\n", p.Status)
			}
		})
		if err != nil {
			return fmt.Errorf("pulling model %s: %w", model, err)
		}
		fmt.Fprintf(w, "model %s: ready\n", model)
	}

	if chatModel == "" {
		return nil
	}

	fmt.Fprintf(w, "model %s: warming up...\n", chatModel)
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := c.Chat(warmCtx, chatModel, []Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", chatModel, err)
	} else {
		fmt.Fprintf(w, "model %s: warm\n", chatModel)
	}

	return nil
}
