package engine

import (
	"context"

	"github.com/Priyank-Malviya/spacebot/internal/groq"
)

// GroqCompleter answers questions through the Groq cloud API. Groq does not
// serve embeddings, so a cloud-backed deployment still pairs this with a local
// Embedder for indexing and retrieval.
type GroqCompleter struct {
	client *groq.Client
	model  string
}

// NewGroqCompleter binds a Groq client to the configured model.
func NewGroqCompleter(client *groq.Client, model string) *GroqCompleter {
	return &GroqCompleter{client: client, model: model}
}

// Complete generates an answer; rate-limit retries happen inside the client.
func (c *GroqCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return c.client.Complete(ctx, c.model, system, user)
}
