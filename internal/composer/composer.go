// Package composer assembles the completion prompt from the retrieved chunks
// and the user's question.
package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Priyank-Malviya/spacebot/internal/retrieval"
)

// ErrOversized is returned when the assembled prompt exceeds the size budget
// and the overflow policy is OverflowError.
var ErrOversized = errors.New("assembled prompt exceeds size budget")

// OverflowPolicy selects how Assemble reacts when the prompt would exceed the
// budget.
type OverflowPolicy string

const (
	// OverflowDrop removes the lowest-ranked chunks until the prompt fits.
	// Chunks are dropped whole, never truncated mid-text.
	OverflowDrop OverflowPolicy = "drop"
	// OverflowError reports ErrOversized and returns no prompt.
	OverflowError OverflowPolicy = "error"
)

// chunkDelimiter separates context chunks in the prompt so the model can tell
// fragment boundaries apart.
const chunkDelimiter = "\n---\n"

const systemPrompt = "You are SpaceBot, an assistant that answers questions about space exploration. " +
	"Answer using only the provided context. If the context does not contain the answer, " +
	"say you don't know rather than guessing."

// Prompt is a fully assembled request ready for a completion backend.
type Prompt struct {
	System string
	User   string
}

// Composer builds prompts under a character budget.
type Composer struct {
	maxChars int
	policy   OverflowPolicy
}

// New creates a Composer. maxChars <= 0 disables the budget entirely.
func New(maxChars int, policy OverflowPolicy) *Composer {
	if policy == "" {
		policy = OverflowDrop
	}
	return &Composer{maxChars: maxChars, policy: policy}
}

// Assemble builds a prompt from the question and its retrieved context.
// Chunks must arrive best-first; under the drop policy the worst chunks go
// first when the budget is tight. The question itself is never dropped, so a
// question that alone exceeds the budget is an error under either policy.
func (c *Composer) Assemble(question string, chunks []retrieval.Chunk) (Prompt, error) {
	for kept := len(chunks); kept >= 0; kept-- {
		user := buildUser(question, chunks[:kept])
		if c.maxChars <= 0 || len(user)+len(systemPrompt) <= c.maxChars {
			return Prompt{System: systemPrompt, User: user}, nil
		}
		if c.policy == OverflowError {
			return Prompt{}, fmt.Errorf("%w: %d chars over a %d char budget",
				ErrOversized, len(user)+len(systemPrompt), c.maxChars)
		}
	}
	// Even the bare question does not fit.
	return Prompt{}, fmt.Errorf("%w: question alone exceeds %d char budget", ErrOversized, c.maxChars)
}

func buildUser(question string, chunks []retrieval.Chunk) string {
	var sb strings.Builder

	if len(chunks) > 0 {
		sb.WriteString("Context:\n")
		for i, ch := range chunks {
			if i > 0 {
				sb.WriteString(chunkDelimiter)
			}
			sb.WriteString(ch.Text)
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
