package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SPACEBOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "corpus.path", typ: kString, env: "SPACEBOT_CORPUS_PATH",
		apply:   func(cfg *Config, v any) { cfg.Corpus.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Corpus.Path },
	},
	{
		key: "corpus.chunk_size", typ: kInt, env: "SPACEBOT_CORPUS_CHUNK_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Corpus.ChunkSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Corpus.ChunkSize },
	},
	{
		key: "corpus.chunk_overlap", typ: kInt, env: "SPACEBOT_CORPUS_CHUNK_OVERLAP",
		apply:   func(cfg *Config, v any) { cfg.Corpus.ChunkOverlap = v.(int) },
		extract: func(cfg Config) any { return cfg.Corpus.ChunkOverlap },
	},
	{
		key: "ollama.base_url", typ: kString, env: "SPACEBOT_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.chat_model", typ: kString, env: "SPACEBOT_OLLAMA_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.ChatModel },
	},
	{
		key: "ollama.embed_model", typ: kString, env: "SPACEBOT_OLLAMA_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.EmbedModel },
	},
	{
		key: "groq.api_key", typ: kString, env: "SPACEBOT_GROQ_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Groq.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.APIKey },
	},
	{
		key: "groq.model", typ: kString, env: "SPACEBOT_GROQ_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Groq.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.Model },
	},
	{
		key: "backend", typ: kString, env: "SPACEBOT_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend },
	},
	{
		key: "retrieval.top_k", typ: kInt, env: "SPACEBOT_RETRIEVAL_TOP_K",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.TopK },
	},
	{
		key: "prompt.max_chars", typ: kInt, env: "SPACEBOT_PROMPT_MAX_CHARS",
		apply:   func(cfg *Config, v any) { cfg.Prompt.MaxChars = v.(int) },
		extract: func(cfg Config) any { return cfg.Prompt.MaxChars },
	},
	{
		key: "prompt.overflow_policy", typ: kString, env: "SPACEBOT_PROMPT_OVERFLOW_POLICY",
		apply:   func(cfg *Config, v any) { cfg.Prompt.OverflowPolicy = v.(string) },
		extract: func(cfg Config) any { return cfg.Prompt.OverflowPolicy },
	},
	{
		key: "cache.enabled", typ: kBool, env: "SPACEBOT_CACHE_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Cache.Enabled = v.(bool); cfg.cacheEnabledSet = true },
		extract: func(cfg Config) any { return cfg.Cache.Enabled },
	},
	{
		key: "cache.snapshot_path", typ: kString, env: "SPACEBOT_CACHE_SNAPSHOT_PATH",
		apply:   func(cfg *Config, v any) { cfg.Cache.SnapshotPath = v.(string) },
		extract: func(cfg Config) any { return cfg.Cache.SnapshotPath },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SPACEBOT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "SPACEBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
