// Package api exposes the question-answering pipeline over HTTP and MCP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Priyank-Malviya/spacebot/internal/composer"
	"github.com/Priyank-Malviya/spacebot/internal/groq"
	"github.com/Priyank-Malviya/spacebot/internal/history"
	"github.com/Priyank-Malviya/spacebot/internal/pipeline"
)

const maxRequestBodySize = 1 << 20 // 1MB

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer     string  `json:"answer"`
	Cached     bool    `json:"cached"`
	Chunks     int     `json:"chunks"`
	DurationMs int64   `json:"duration_ms"`
	Sources    []Chunk `json:"sources,omitempty"`
}

type Chunk struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// NewHandler returns the REST handler for a Bot.
func NewHandler(bot *pipeline.Bot) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/v1/ask", handleAsk(bot))
	r.Get("/v1/history", handleHistory(bot))
	r.Delete("/v1/history", handleClearHistory(bot))
	r.Delete("/v1/cache", handleClearCache(bot))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleAsk(bot *pipeline.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		ans, err := bot.Ask(r.Context(), req.Question)
		if err != nil {
			code, errType := classifyAskError(err)
			httpError(w, code, errType, "%v", err)
			return
		}

		resp := AskResponse{
			Answer:     ans.Text,
			Cached:     ans.Cached,
			Chunks:     len(ans.Chunks),
			DurationMs: ans.Duration.Milliseconds(),
		}
		for _, c := range ans.Chunks {
			resp.Sources = append(resp.Sources, Chunk{Index: c.Index, Text: c.Text, Score: c.Score})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// classifyAskError maps pipeline failures onto HTTP statuses: client mistakes
// stay 4xx, backend trouble surfaces as 502, rate limiting keeps its 429.
func classifyAskError(err error) (int, string) {
	var rateErr *groq.RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests, "rate_limit_error"
	}
	if errors.Is(err, composer.ErrOversized) {
		return http.StatusBadRequest, "invalid_request_error"
	}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return http.StatusBadGateway, "api_error"
	}
	return http.StatusInternalServerError, "api_error"
}

func handleHistory(bot *pipeline.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := bot.History()
		if entries == nil {
			entries = []history.Entry{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

func handleClearHistory(bot *pipeline.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bot.ClearHistory()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	}
}

func handleClearCache(bot *pipeline.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bot.ClearCache()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
