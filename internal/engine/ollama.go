package engine

import (
	"context"
	"fmt"

	"github.com/Priyank-Malviya/spacebot/internal/ollama"
)

// OllamaEngine serves both completion and embedding through a local Ollama
// daemon, typically with different models for each.
type OllamaEngine struct {
	client     *ollama.Client
	chatModel  string
	embedModel string
}

// NewOllamaEngine wires an Ollama client to the configured chat and embedding
// models.
func NewOllamaEngine(client *ollama.Client, chatModel, embedModel string) *OllamaEngine {
	return &OllamaEngine{
		client:     client,
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

// Complete runs a single chat turn against the chat model.
func (e *OllamaEngine) Complete(ctx context.Context, system, user string) (string, error) {
	msgs := []ollama.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	resp, err := e.client.Chat(ctx, e.chatModel, msgs)
	if err != nil {
		return "", fmt.Errorf("ollama completion: %w", err)
	}

	return resp, nil
}

// Embed produces a vector for the given text using the embedding model.
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, e.embedModel, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}

	return vec, nil
}
