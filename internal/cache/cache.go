// Package cache stores completed answers keyed by a normalized form of the
// question, so repeat questions skip retrieval and generation entirely.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is a cached answer and when it was generated.
type Entry struct {
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is a concurrency-safe answer cache with optional snapshot
// persistence. A nil *Cache is valid and behaves as a disabled cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	path    string
}

// New creates an in-memory cache with no persistence.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Open loads a cache from a JSON snapshot at path. A missing or unreadable
// snapshot is not an error: the cache starts empty and only answer latency is
// lost.
func Open(path string) *Cache {
	c := &Cache{entries: make(map[string]Entry), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt snapshot, start fresh.
		return c
	}
	c.entries = entries
	return c
}

// NormalizeKey maps a question to its cache key: lowercased, with leading,
// trailing, and repeated whitespace collapsed. Questions differing only in
// casing or spacing share an entry.
func NormalizeKey(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}

// Lookup returns the cached answer for a question, if any.
func (c *Cache) Lookup(question string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[NormalizeKey(question)]
	return e, ok
}

// Store records an answer for a question, replacing any previous entry for
// the same normalized key. When the cache has a snapshot path the snapshot is
// rewritten so entries survive an unclean shutdown.
func (c *Cache) Store(question, answer string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[NormalizeKey(question)] = Entry{Answer: answer, CreatedAt: time.Now().UTC()}
	c.mu.Unlock()
	c.persist()
}

// Clear discards all entries and rewrites the snapshot, if any.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
	c.persist()
}

// Len returns the number of cached answers.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// persist writes the snapshot best-effort; a lost snapshot only costs answer
// latency on the next start.
func (c *Cache) persist() {
	if c.path == "" {
		return
	}
	if err := c.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] could not save cache snapshot: %v\n", err)
	}
}

// Save writes the cache to its snapshot path. A cache opened without a path
// saves nowhere and returns nil.
func (c *Cache) Save() error {
	if c == nil || c.path == "" {
		return nil
	}
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding cache snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing cache snapshot: %w", err)
	}
	return nil
}
