package retrieval

import (
	"context"

	"github.com/Priyank-Malviya/spacebot/internal/index"
)

// Chunk is a retrieved corpus fragment with its similarity score.
type Chunk struct {
	ID    string
	Index int
	Text  string
	Score float32
}

// Searcher is the slice of the index a Retriever needs.
type Searcher interface {
	Search(vector []float32, topK int) ([]index.Scored, error)
}

// Retriever combines embedding and vector search to find relevant context.
type Retriever struct {
	embedder *Embedder
	store    Searcher
	topK     int
}

// NewRetriever creates a Retriever returning up to topK chunks per query.
func NewRetriever(embedder *Embedder, store Searcher, topK int) *Retriever {
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the question and returns the most similar chunks, best
// first. The chunk text comes back verbatim as it was indexed.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]Chunk, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	scored, err := r.store.Search(vec, r.topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = Chunk{
			ID:    s.ID,
			Index: s.Index,
			Text:  s.Text,
			Score: s.Score,
		}
	}
	return chunks, nil
}
