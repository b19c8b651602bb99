// Package engine abstracts the inference backends behind two narrow
// capabilities: text completion and text embedding. The pipeline depends on
// these interfaces only, so the cloud and local variants are interchangeable
// without any other code branching on which backend is active.
package engine

import "context"

// Completer generates answer text from an assembled prompt.
type Completer interface {
	// Complete sends the system framing and user content to the backend and
	// returns the generated text.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder converts text into a fixed-length vector. Chunk and query
// embeddings must come from the same Embedder to be comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
