package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tell me about Mars", "tell me about mars"},
		{"  Tell me about Mars  ", "tell me about mars"},
		{"Tell  me\tabout\nMars", "tell me about mars"},
		{"TELL ME ABOUT MARS", "tell me about mars"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoreAndLookup(t *testing.T) {
	c := New()
	c.Store("Tell me about Mars", "Mars is the fourth planet.")

	e, ok := c.Lookup("Tell me about Mars")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if e.Answer != "Mars is the fourth planet." {
		t.Errorf("unexpected answer: %q", e.Answer)
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestLookupNormalizedVariants(t *testing.T) {
	c := New()
	c.Store("Tell me about Mars", "answer")

	for _, q := range []string{"tell me about mars", "  TELL ME ABOUT MARS  ", "Tell  me about\tMars"} {
		if _, ok := c.Lookup(q); !ok {
			t.Errorf("expected hit for variant %q", q)
		}
	}
	if _, ok := c.Lookup("Tell me about Venus"); ok {
		t.Error("expected miss for a different question")
	}
}

func TestStoreReplacesEntry(t *testing.T) {
	c := New()
	c.Store("q", "old")
	c.Store("Q", "new")

	e, _ := c.Lookup("q")
	if e.Answer != "new" {
		t.Errorf("expected latest answer, got %q", e.Answer)
	}
	if c.Len() != 1 {
		t.Errorf("expected one entry, got %d", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Store("a", "1")
	c.Store("b", "2")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	c.Store("q", "a")
	if _, ok := c.Lookup("q"); ok {
		t.Error("nil cache must never hit")
	}
	if c.Len() != 0 {
		t.Error("nil cache must report zero entries")
	}
	c.Clear()
	if err := c.Save(); err != nil {
		t.Errorf("nil cache Save must be a no-op, got %v", err)
	}
}

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := Open(path)
	c.Store("Tell me about Mars", "Mars is red.")
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened := Open(path)
	e, ok := reopened.Lookup("tell me about mars")
	if !ok {
		t.Fatal("expected entry to survive reopen")
	}
	if e.Answer != "Mars is red." {
		t.Errorf("unexpected answer after reopen: %q", e.Answer)
	}
}

func TestStoreWritesSnapshotImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := Open(path)
	c.Store("Tell me about Mars", "Mars is red.")

	// No Save call: the entry must survive an unclean shutdown.
	reopened := Open(path)
	e, ok := reopened.Lookup("tell me about mars")
	if !ok {
		t.Fatal("expected entry in snapshot right after Store")
	}
	if e.Answer != "Mars is red." {
		t.Errorf("unexpected answer: %q", e.Answer)
	}
}

func TestClearWritesSnapshotImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := Open(path)
	c.Store("q", "a")
	c.Clear()

	if reopened := Open(path); reopened.Len() != 0 {
		t.Errorf("expected empty snapshot after Clear, got %d entries", reopened.Len())
	}
}

func TestOpenMissingSnapshot(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "nope.json"))
	if c.Len() != 0 {
		t.Errorf("expected empty cache for missing snapshot, got %d", c.Len())
	}
}

func TestOpenCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Open(path)
	if c.Len() != 0 {
		t.Errorf("expected empty cache for corrupt snapshot, got %d", c.Len())
	}
	// The cache must remain usable after discarding the corrupt snapshot.
	c.Store("q", "a")
	if err := c.Save(); err != nil {
		t.Errorf("Save after corrupt open failed: %v", err)
	}
}
