// Package pipeline orchestrates a question through cache lookup, retrieval,
// prompt assembly, and completion, recording the exchange in the conversation
// log.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Priyank-Malviya/spacebot/internal/cache"
	"github.com/Priyank-Malviya/spacebot/internal/composer"
	"github.com/Priyank-Malviya/spacebot/internal/engine"
	"github.com/Priyank-Malviya/spacebot/internal/history"
	"github.com/Priyank-Malviya/spacebot/internal/retrieval"
)

// failurePlaceholder is recorded as the answer in the conversation log when a
// question could not be answered.
const failurePlaceholder = "[error: no answer generated]"

// Retriever is the slice of the retrieval layer the pipeline needs, kept as
// an interface so tests can count and stub retrievals.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]retrieval.Chunk, error)
}

// StageError reports which pipeline stage failed for which question.
type StageError struct {
	Stage    string
	Question string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed for question %q: %v", e.Stage, e.Question, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Answer is the result of one Ask, with provenance for callers that want it.
type Answer struct {
	Text     string
	Cached   bool
	Chunks   []retrieval.Chunk
	Duration time.Duration
}

// Bot ties the pipeline stages together. A nil cache disables caching.
type Bot struct {
	cache     *cache.Cache
	retriever Retriever
	composer  *composer.Composer
	completer engine.Completer
	history   *history.Log
	log       *slog.Logger
}

// New wires a Bot from its stages.
func New(c *cache.Cache, r Retriever, comp *composer.Composer, completer engine.Completer, h *history.Log, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		cache:     c,
		retriever: r,
		composer:  comp,
		completer: completer,
		history:   h,
		log:       log,
	}
}

// Ask answers a question. A cache hit short-circuits retrieval and generation
// entirely; otherwise the question flows through retrieve, assemble, and
// generate, and the fresh answer is cached. Every ask is recorded in the
// conversation log, failures included.
func (b *Bot) Ask(ctx context.Context, question string) (Answer, error) {
	start := time.Now()

	if entry, ok := b.cache.Lookup(question); ok {
		b.log.Debug("cache hit", "question", question)
		b.history.Append(question, entry.Answer)
		return Answer{Text: entry.Answer, Cached: true, Duration: time.Since(start)}, nil
	}

	chunks, err := b.retriever.Retrieve(ctx, question)
	if err != nil {
		return b.fail(question, "retrieval", err)
	}

	prompt, err := b.composer.Assemble(question, chunks)
	if err != nil {
		return b.fail(question, "prompt assembly", err)
	}

	text, err := b.completer.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return b.fail(question, "completion", err)
	}

	b.cache.Store(question, text)
	b.history.Append(question, text)

	b.log.Info("question answered",
		"question", question,
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return Answer{Text: text, Chunks: chunks, Duration: time.Since(start)}, nil
}

func (b *Bot) fail(question, stage string, err error) (Answer, error) {
	b.log.Error("ask failed", "stage", stage, "question", question, "error", err)
	b.history.Append(question, failurePlaceholder)
	return Answer{}, &StageError{Stage: stage, Question: question, Err: err}
}

// History returns the conversation log, oldest first.
func (b *Bot) History() []history.Entry {
	return b.history.Entries()
}

// ClearHistory discards the conversation log.
func (b *Bot) ClearHistory() {
	b.history.Clear()
}

// ClearCache discards all cached answers.
func (b *Bot) ClearCache() {
	b.cache.Clear()
}
