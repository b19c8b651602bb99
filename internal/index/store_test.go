package index

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntries(vectors ...[]float32) []Entry {
	entries := make([]Entry, len(vectors))
	for i, v := range vectors {
		entries[i] = Entry{
			ID:        fmt.Sprintf("chunk-%d", i),
			Index:     i,
			Text:      fmt.Sprintf("chunk %d text", i),
			Embedding: v,
			CreatedAt: time.Now().UTC(),
		}
	}
	return entries
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openTestStore(t)

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty index, got %d chunks", count)
	}

	checksum, err := s.Checksum()
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	if checksum != "" {
		t.Errorf("expected empty checksum for fresh index, got %q", checksum)
	}
}

func TestReplaceAndCount(t *testing.T) {
	s := openTestStore(t)

	entries := testEntries([]float32{1, 0}, []float32{0, 1}, []float32{1, 1})
	if err := s.Replace("sum-1", entries); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 chunks, got %d", count)
	}

	checksum, err := s.Checksum()
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	if checksum != "sum-1" {
		t.Errorf("expected checksum sum-1, got %q", checksum)
	}
}

func TestReplaceSwapsWholeIndex(t *testing.T) {
	s := openTestStore(t)

	if err := s.Replace("old", testEntries([]float32{1, 0}, []float32{0, 1})); err != nil {
		t.Fatalf("first Replace failed: %v", err)
	}
	if err := s.Replace("new", testEntries([]float32{1, 1})); err != nil {
		t.Fatalf("second Replace failed: %v", err)
	}

	count, _ := s.Count()
	if count != 1 {
		t.Errorf("expected old chunks gone, got %d chunks", count)
	}
	checksum, _ := s.Checksum()
	if checksum != "new" {
		t.Errorf("expected checksum new, got %q", checksum)
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	s := openTestStore(t)

	// chunk 0 points along x, chunk 1 along y, chunk 2 diagonal.
	entries := testEntries([]float32{1, 0}, []float32{0, 1}, []float32{1, 1})
	if err := s.Replace("sum", entries); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	results, err := s.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Index != 0 {
		t.Errorf("expected chunk 0 ranked first, got chunk %d", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Errorf("expected chunk 2 ranked second, got chunk %d", results[1].Index)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %f then %f", results[0].Score, results[1].Score)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-5 {
		t.Errorf("expected near-perfect score for identical vector, got %f", results[0].Score)
	}
}

func TestSearchTiesKeepDocumentOrder(t *testing.T) {
	s := openTestStore(t)

	// All chunks identical, so every score ties.
	entries := testEntries([]float32{1, 1}, []float32{1, 1}, []float32{1, 1})
	if err := s.Replace("sum", entries); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	results, err := s.Search([]float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("position %d: expected chunk %d, got chunk %d", i, i, r.Index)
		}
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	s := openTestStore(t)

	if err := s.Replace("sum", testEntries([]float32{1, 0}, []float32{0, 1})); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	results, err := s.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected all 2 chunks when k exceeds index size, got %d", len(results))
	}
}

func TestSearchZeroQueryVector(t *testing.T) {
	s := openTestStore(t)

	if err := s.Replace("sum", testEntries([]float32{1, 0})); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	results, err := s.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for zero vector, got %d", len(results))
	}
}

func TestSearchDeterministic(t *testing.T) {
	s := openTestStore(t)

	entries := testEntries([]float32{0.3, 0.7}, []float32{0.5, 0.5}, []float32{0.9, 0.1})
	if err := s.Replace("sum", entries); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	first, err := s.Search([]float32{0.4, 0.6}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := s.Search([]float32{0.4, 0.6}, 2)
		if err != nil {
			t.Fatalf("repeated Search failed: %v", err)
		}
		for j := range first {
			if again[j].ID != first[j].ID || again[j].Score != first[j].Score {
				t.Fatalf("run %d: result %d differs from first run", i, j)
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := []float32{0.1, -2.5, 3.14159, 0}
	decoded, err := decodeFloat32s(encodeFloat32s(v))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != len(v) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(v))
	}
	for i := range v {
		if decoded[i] != v[i] {
			t.Errorf("element %d: got %f, want %f", i, decoded[i], v[i])
		}
	}
}

func TestDecodeRejectsCorruptBlob(t *testing.T) {
	if _, err := decodeFloat32s([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not a multiple of 4")
	}
}
