package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Priyank-Malviya/spacebot/internal/cache"
	"github.com/Priyank-Malviya/spacebot/internal/composer"
	"github.com/Priyank-Malviya/spacebot/internal/history"
	"github.com/Priyank-Malviya/spacebot/internal/retrieval"
)

type countingRetriever struct {
	calls  int
	chunks []retrieval.Chunk
	err    error
}

func (r *countingRetriever) Retrieve(ctx context.Context, question string) ([]retrieval.Chunk, error) {
	r.calls++
	return r.chunks, r.err
}

type countingCompleter struct {
	calls  int
	answer string
	err    error
}

func (c *countingCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.calls++
	return c.answer, c.err
}

func newTestBot(r *countingRetriever, c *countingCompleter, withCache bool) *Bot {
	var store *cache.Cache
	if withCache {
		store = cache.New()
	}
	return New(store, r, composer.New(0, composer.OverflowDrop), c, history.New(), nil)
}

func TestAskGeneratesAndCaches(t *testing.T) {
	r := &countingRetriever{chunks: []retrieval.Chunk{{ID: "c1", Text: "Mars is red."}}}
	c := &countingCompleter{answer: "Mars is the red planet."}
	bot := newTestBot(r, c, true)

	ans, err := bot.Ask(context.Background(), "Tell me about Mars")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if ans.Text != "Mars is the red planet." {
		t.Errorf("unexpected answer: %q", ans.Text)
	}
	if ans.Cached {
		t.Error("first ask must not be a cache hit")
	}
	if len(ans.Chunks) != 1 {
		t.Errorf("expected retrieved chunks in answer, got %d", len(ans.Chunks))
	}

	// Second ask: answered from cache, zero backend work.
	again, err := bot.Ask(context.Background(), "Tell me about Mars")
	if err != nil {
		t.Fatalf("second Ask failed: %v", err)
	}
	if !again.Cached {
		t.Error("second ask must be a cache hit")
	}
	if again.Text != ans.Text {
		t.Errorf("cached answer differs: %q vs %q", again.Text, ans.Text)
	}
	if r.calls != 1 || c.calls != 1 {
		t.Errorf("cache hit must skip retrieval and completion, got %d retrievals and %d completions", r.calls, c.calls)
	}
}

func TestAskCacheHitOnNormalizedVariant(t *testing.T) {
	r := &countingRetriever{}
	c := &countingCompleter{answer: "an answer"}
	bot := newTestBot(r, c, true)

	if _, err := bot.Ask(context.Background(), "Tell me about Mars"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	ans, err := bot.Ask(context.Background(), "  tell me ABOUT mars ")
	if err != nil {
		t.Fatalf("variant Ask failed: %v", err)
	}
	if !ans.Cached {
		t.Error("normalized variant must hit the cache")
	}
}

func TestAskWithoutCache(t *testing.T) {
	r := &countingRetriever{}
	c := &countingCompleter{answer: "a"}
	bot := newTestBot(r, c, false)

	for i := 0; i < 2; i++ {
		if _, err := bot.Ask(context.Background(), "q"); err != nil {
			t.Fatalf("Ask %d failed: %v", i, err)
		}
	}
	if c.calls != 2 {
		t.Errorf("disabled cache must regenerate every time, got %d completions", c.calls)
	}
}

func TestAskRecordsHistoryInOrder(t *testing.T) {
	bot := newTestBot(&countingRetriever{}, &countingCompleter{answer: "a"}, true)

	questions := []string{"first?", "second?", "third?"}
	for _, q := range questions {
		if _, err := bot.Ask(context.Background(), q); err != nil {
			t.Fatalf("Ask(%q) failed: %v", q, err)
		}
	}

	entries := bot.History()
	if len(entries) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(entries))
	}
	for i, q := range questions {
		if entries[i].Question != q {
			t.Errorf("position %d: got %q, want %q", i, entries[i].Question, q)
		}
	}
}

func TestAskCachedAnswerStillRecorded(t *testing.T) {
	bot := newTestBot(&countingRetriever{}, &countingCompleter{answer: "a"}, true)

	bot.Ask(context.Background(), "q")
	bot.Ask(context.Background(), "q")

	if got := len(bot.History()); got != 2 {
		t.Errorf("cache hits must still append to history, got %d entries", got)
	}
}

func TestAskRetrievalFailure(t *testing.T) {
	backendErr := errors.New("embedding backend down")
	r := &countingRetriever{err: backendErr}
	c := &countingCompleter{answer: "a"}
	bot := newTestBot(r, c, true)

	_, err := bot.Ask(context.Background(), "q")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != "retrieval" {
		t.Errorf("expected retrieval stage, got %q", stageErr.Stage)
	}
	if !errors.Is(err, backendErr) {
		t.Error("StageError must unwrap to the backend error")
	}
	if c.calls != 0 {
		t.Error("completion must not run after retrieval failure")
	}

	entries := bot.History()
	if len(entries) != 1 || entries[0].Answer != failurePlaceholder {
		t.Errorf("expected failure placeholder in history, got %+v", entries)
	}
}

func TestAskCompletionFailureNotCached(t *testing.T) {
	c := &countingCompleter{err: errors.New("model overloaded")}
	bot := newTestBot(&countingRetriever{}, c, true)

	if _, err := bot.Ask(context.Background(), "q"); err == nil {
		t.Fatal("expected completion error")
	}

	// A later retry must reach the backend again, not a cached failure.
	c.err = nil
	c.answer = "recovered"
	ans, err := bot.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if ans.Cached || ans.Text != "recovered" {
		t.Errorf("failed ask must not be cached, got %+v", ans)
	}
}

func TestAskOversizedPrompt(t *testing.T) {
	bot := New(
		cache.New(),
		&countingRetriever{},
		composer.New(10, composer.OverflowError),
		&countingCompleter{answer: "a"},
		history.New(),
		nil,
	)

	_, err := bot.Ask(context.Background(), "a question much longer than the budget")
	if !errors.Is(err, composer.ErrOversized) {
		t.Errorf("expected ErrOversized, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "prompt assembly" {
		t.Errorf("expected prompt assembly StageError, got %v", err)
	}
}

func TestClearHistoryAndCache(t *testing.T) {
	c := &countingCompleter{answer: "a"}
	bot := newTestBot(&countingRetriever{}, c, true)

	bot.Ask(context.Background(), "q")
	bot.ClearHistory()
	if len(bot.History()) != 0 {
		t.Error("expected empty history after ClearHistory")
	}

	bot.ClearCache()
	bot.Ask(context.Background(), "q")
	if c.calls != 2 {
		t.Errorf("expected regeneration after ClearCache, got %d completions", c.calls)
	}
}
