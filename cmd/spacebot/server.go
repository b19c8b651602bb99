package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/Priyank-Malviya/spacebot/internal/api"
	"github.com/Priyank-Malviya/spacebot/internal/cache"
	"github.com/Priyank-Malviya/spacebot/internal/composer"
	"github.com/Priyank-Malviya/spacebot/internal/config"
	"github.com/Priyank-Malviya/spacebot/internal/corpus"
	"github.com/Priyank-Malviya/spacebot/internal/engine"
	"github.com/Priyank-Malviya/spacebot/internal/groq"
	"github.com/Priyank-Malviya/spacebot/internal/history"
	"github.com/Priyank-Malviya/spacebot/internal/index"
	"github.com/Priyank-Malviya/spacebot/internal/ollama"
	"github.com/Priyank-Malviya/spacebot/internal/pipeline"
	"github.com/Priyank-Malviya/spacebot/internal/retrieval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the spacebot server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "spacebot version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Corpus.Path == "" {
		return fmt.Errorf("no corpus configured: set corpus.path via `spacebot config set corpus.path <pdf>` or SPACEBOT_CORPUS_PATH")
	}

	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Embeddings always come from Ollama; Groq only serves completions.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	chatModel := cfg.Ollama.ChatModel
	if cfg.Backend == "groq" {
		chatModel = ""
	}
	if err := ollama.EnsureReady(ctx, ollamaClient, chatModel, cfg.Ollama.EmbedModel, os.Stderr); err != nil {
		return err
	}

	ollamaEngine := engine.NewOllamaEngine(ollamaClient, cfg.Ollama.ChatModel, cfg.Ollama.EmbedModel)
	var completer engine.Completer = ollamaEngine
	if cfg.Backend == "groq" {
		completer = engine.NewGroqCompleter(groq.NewClient(cfg.Groq.APIKey), cfg.Groq.Model)
	}
	slog.Info("completion backend selected", "backend", cfg.Backend)

	// Load the corpus and make sure the index matches it before serving.
	doc, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	store, err := index.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing index: %v\n", err)
		}
	}()

	embedder := retrieval.NewEmbedder(ollamaEngine)
	builder := index.NewBuilder(store, embedder, cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap, slog.Default())
	chunkCount, err := builder.Ensure(ctx, doc)
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}
	slog.Info("corpus ready", "path", cfg.Corpus.Path, "pages", len(doc.Pages), "chunks", chunkCount)

	// Wire the pipeline.
	var answerCache *cache.Cache
	if cfg.Cache.Enabled {
		snapshotPath := cfg.Cache.SnapshotPath
		if snapshotPath == "" {
			snapshotPath = filepath.Join(cfg.Storage.DataDir, "cache.json")
		}
		// The cache snapshots itself after every store.
		answerCache = cache.Open(snapshotPath)
	}

	retriever := retrieval.NewRetriever(embedder, store, cfg.Retrieval.TopK)
	comp := composer.New(cfg.Prompt.MaxChars, composer.OverflowPolicy(cfg.Prompt.OverflowPolicy))
	bot := pipeline.New(answerCache, retriever, comp, completer, history.New(), slog.Default())

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(bot),
	}

	// MCP server on stdio transport.
	mcpSrv := api.NewMCPServer(api.MCPDeps{Bot: bot, Retriever: retriever})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "spacebot listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
