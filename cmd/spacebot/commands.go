package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Priyank-Malviya/spacebot/internal/api"
	"github.com/Priyank-Malviya/spacebot/internal/config"
	"github.com/Priyank-Malviya/spacebot/internal/corpus"
	"github.com/Priyank-Malviya/spacebot/internal/engine"
	"github.com/Priyank-Malviya/spacebot/internal/groq"
	"github.com/Priyank-Malviya/spacebot/internal/history"
	"github.com/Priyank-Malviya/spacebot/internal/index"
	"github.com/Priyank-Malviya/spacebot/internal/ollama"
	"github.com/Priyank-Malviya/spacebot/internal/retrieval"
)

// --- index ---

var indexCmd = &cobra.Command{
	Use:   "index [pdf]",
	Short: "Build or refresh the chunk index for the corpus",
	Long: `Build or refresh the chunk index for the corpus.

Extracts text from the PDF, splits it into overlapping chunks, embeds each
chunk, and stores the result. An index already matching the document is left
untouched; pass --force to rebuild anyway.

Examples:
  spacebot index
  spacebot index ./docs/space.pdf
  spacebot index --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path := cfg.Corpus.Path
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no corpus configured: pass a PDF path or set corpus.path")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printStep("Loading %s", path)
		doc, err := corpus.Load(path)
		if err != nil {
			return fmt.Errorf("loading corpus: %w", err)
		}
		printStatus("Pages", "%d", len(doc.Pages))

		ollamaClient := ollama.New(cfg.Ollama.BaseURL)
		if err := ollama.EnsureReady(ctx, ollamaClient, "", cfg.Ollama.EmbedModel, os.Stderr); err != nil {
			return err
		}

		store, err := index.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer store.Close()

		if force {
			// An empty checksum never matches, so Ensure always rebuilds.
			if err := store.Replace("", nil); err != nil {
				return fmt.Errorf("clearing index: %w", err)
			}
		}

		eng := engine.NewOllamaEngine(ollamaClient, "", cfg.Ollama.EmbedModel)
		embedder := retrieval.NewEmbedder(eng)
		builder := index.NewBuilder(store, embedder, cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap, nil)

		start := time.Now()
		n, err := builder.Ensure(ctx, doc)
		if err != nil {
			return err
		}
		printSuccess("Index ready: %d chunks (%.1fs)", n, time.Since(start).Seconds())
		return nil
	},
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showSources, _ := cmd.Flags().GetBool("sources")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/ask", api.AskRequest{Question: args[0]})
		if err != nil {
			return err
		}

		var result api.AskResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Answer)

		if result.Cached {
			printStatus("Source", "cache")
		} else {
			printStatus("Chunks", "%d", result.Chunks)
			printStatus("Took", "%dms", result.DurationMs)
		}
		if showSources {
			for _, s := range result.Sources {
				fmt.Fprintf(os.Stderr, "  %s %s\n",
					colorize(colorCyan, fmt.Sprintf("[%d %.2f]", s.Index, s.Score)),
					s.Text,
				)
			}
		}
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the conversation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/history")
		if err != nil {
			return err
		}

		var entries []history.Entry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no questions asked yet")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s %s\n", colorize(colorBold, "Q:"), e.Question)
			fmt.Printf("%s %s\n", colorize(colorCyan, "A:"), e.Answer)
			fmt.Printf("   %s\n", e.AskedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the conversation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/history")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("History cleared")
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Discard all cached answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/cache")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Cache cleared")
		return nil
	},
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return listModels(cmd.Context(), cfg, os.Stdout)
	},
}

func listModels(ctx context.Context, cfg config.Config, out io.Writer) error {
	switch cfg.Backend {
	case "groq":
		models, err := groq.NewClient(cfg.Groq.APIKey).ListModels(ctx)
		if err != nil {
			return fmt.Errorf("listing groq models: %w", err)
		}
		for _, m := range models {
			printModel(out, m.ID, m.ID == cfg.Groq.Model)
		}
	default:
		names, err := ollama.New(cfg.Ollama.BaseURL).ListModels(ctx)
		if err != nil {
			return fmt.Errorf("listing ollama models: %w", err)
		}
		for _, name := range names {
			printModel(out, name, name == cfg.Ollama.ChatModel || name == cfg.Ollama.EmbedModel)
		}
	}
	return nil
}

// printModel marks the models the current configuration uses.
func printModel(out io.Writer, name string, active bool) {
	marker := " "
	if active {
		marker = colorize(colorGreen, "*")
	}
	fmt.Fprintf(out, "%s %s\n", marker, name)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	indexCmd.Flags().Bool("force", false, "rebuild the index even if it matches the corpus")
	askCmd.Flags().Bool("sources", false, "print the retrieved chunks alongside the answer")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(cacheClearCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
