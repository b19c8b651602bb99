// Package config loads runtime configuration from a JSON config file at an
// XDG-compatible path, with environment variable overrides (SPACEBOT_*).
package config

import (
	"fmt"
)

type Config struct {
	Server    ServerConfig
	Corpus    CorpusConfig
	Ollama    OllamaConfig
	Groq      GroqConfig
	Backend   string // "ollama" or "groq"
	Retrieval RetrievalConfig
	Prompt    PromptConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Log       LogConfig

	// cacheEnabledSet records whether cache.enabled was set explicitly,
	// from the config file or the environment.
	cacheEnabledSet bool
}

type ServerConfig struct {
	Port int
}

type CorpusConfig struct {
	Path         string
	ChunkSize    int
	ChunkOverlap int
}

type OllamaConfig struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
}

type GroqConfig struct {
	APIKey string
	Model  string
}

type RetrievalConfig struct {
	TopK int
}

type PromptConfig struct {
	MaxChars       int
	OverflowPolicy string // "drop" or "error"
}

type CacheConfig struct {
	Enabled      bool
	SnapshotPath string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Corpus: CorpusConfig{
			ChunkSize:    480,
			ChunkOverlap: 60,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			ChatModel:  "llama3",
			EmbedModel: "nomic-embed-text",
		},
		Groq: GroqConfig{
			Model: "llama-3.1-8b-instant",
		},
		Backend: "ollama",
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		Prompt: PromptConfig{
			MaxChars:       8000,
			OverflowPolicy: "drop",
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/spacebot/config.json, then applies SPACEBOT_* environment
// variable overrides, then validates the result.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// The cache is on by default only for the local backend; the groq
	// backend runs without one unless cache.enabled says otherwise.
	if !cfg.cacheEnabledSet {
		cfg.Cache.Enabled = cfg.Backend != "groq"
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Corpus.ChunkSize <= 0 {
		return fmt.Errorf("corpus.chunk_size must be positive, got %d", cfg.Corpus.ChunkSize)
	}
	if cfg.Corpus.ChunkOverlap < 0 || cfg.Corpus.ChunkOverlap >= cfg.Corpus.ChunkSize {
		return fmt.Errorf("corpus.chunk_overlap must be in [0, chunk_size), got %d with chunk_size %d",
			cfg.Corpus.ChunkOverlap, cfg.Corpus.ChunkSize)
	}
	if cfg.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", cfg.Retrieval.TopK)
	}
	switch cfg.Prompt.OverflowPolicy {
	case "drop", "error":
	default:
		return fmt.Errorf("prompt.overflow_policy must be %q or %q, got %q", "drop", "error", cfg.Prompt.OverflowPolicy)
	}
	switch cfg.Backend {
	case "ollama":
	case "groq":
		if cfg.Groq.APIKey == "" {
			return fmt.Errorf("missing required config: Groq API key. " +
				"Set it via environment variable SPACEBOT_GROQ_API_KEY")
		}
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", "ollama", "groq", cfg.Backend)
	}
	return nil
}
