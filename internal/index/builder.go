package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Priyank-Malviya/spacebot/internal/corpus"
	"github.com/Priyank-Malviya/spacebot/internal/segment"
)

// ChunkEmbedder produces one vector per input text. Vectors are returned in
// input order.
type ChunkEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder populates the store from a corpus document, skipping the work when
// the stored index already matches the document.
type Builder struct {
	store    *Store
	embedder ChunkEmbedder
	size     int
	overlap  int
	log      *slog.Logger
}

// NewBuilder configures a Builder with the chunking parameters used to split
// the document.
func NewBuilder(store *Store, embedder ChunkEmbedder, size, overlap int, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{store: store, embedder: embedder, size: size, overlap: overlap, log: log}
}

// Ensure makes the store's contents match doc. If the stored corpus checksum
// equals the document's and the index is non-empty, the existing index is
// reused; otherwise the document is re-chunked, re-embedded, and swapped in
// atomically. Returns the number of indexed chunks.
func (b *Builder) Ensure(ctx context.Context, doc *corpus.Document) (int, error) {
	checksum := doc.Checksum()

	stored, err := b.store.Checksum()
	if err != nil {
		return 0, fmt.Errorf("reading stored checksum: %w", err)
	}
	count, err := b.store.Count()
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	if stored == checksum && count > 0 {
		b.log.Info("index up to date", "chunks", count)
		return count, nil
	}

	chunks := segment.Split(doc.Text(), b.size, b.overlap)
	if len(chunks) == 0 {
		return 0, corpus.ErrEmpty
	}

	b.log.Info("building index", "chunks", len(chunks), "chunk_size", b.size, "overlap", b.overlap)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	now := time.Now().UTC()
	entries := make([]Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = Entry{
			ID:        uuid.NewString(),
			Index:     c.Index,
			Text:      c.Text,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}

	if err := b.store.Replace(checksum, entries); err != nil {
		return 0, fmt.Errorf("replacing index: %w", err)
	}

	b.log.Info("index built", "chunks", len(entries))
	return len(entries), nil
}
