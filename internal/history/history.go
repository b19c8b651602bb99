// Package history keeps an in-order record of the questions asked in a
// session and the answers given.
package history

import (
	"sync"
	"time"
)

// Entry is one question/answer exchange.
type Entry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Log is a concurrency-safe append-only conversation log.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Append records an exchange. Entries keep arrival order.
func (l *Log) Append(question, answer string) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now().UTC(),
	})
	l.mu.Unlock()
}

// Entries returns a snapshot of the log, oldest first. The caller may modify
// the returned slice freely.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear discards all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// Len returns the number of recorded exchanges.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
