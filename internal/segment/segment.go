// Package segment splits document text into overlapping fixed-size chunks,
// the unit of retrieval for the rest of the pipeline.
package segment

// Chunk is a contiguous run of document text. Start and End are rune offsets
// into the source text; consecutive chunks share `overlap` runes.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// Split cuts text into chunks of `size` runes, each sharing `overlap` runes
// with its predecessor. The output fully covers the input with no gaps and is
// deterministic for a given input and parameters. Empty text yields nil; text
// shorter than size yields a single chunk.
func Split(text string, size, overlap int) []Chunk {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
