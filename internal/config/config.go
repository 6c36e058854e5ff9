// Package config loads ragdesk configuration from a TOML file with
// environment variable overrides. Secrets only ever come from the
// environment (or a .env file), never from the config file, so the
// file can be committed or shared safely.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ragdesk/ragdesk/internal/logger"
)

// Config is the full ragdesk configuration.
type Config struct {
	// Environment is reported by the health endpoint
	// (e.g. "development", "production").
	Environment string `toml:"environment"`

	// DataDir is where the SQLite database lives.
	// Defaults to ~/.ragdesk/data.
	DataDir string `toml:"data_dir"`

	// SourceDir is the default directory to ingest documents from.
	SourceDir string `toml:"source_dir"`

	Server    ServerConfig    `toml:"server"`
	Ingest    IngestConfig    `toml:"ingest"`
	Chat      ChatConfig      `toml:"chat"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	// Host is the bind address.
	Host string `toml:"host"`

	// Port is the listen port.
	Port int `toml:"port"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	// ChunkSize is the chunk length in characters.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int `toml:"chunk_overlap"`

	// WatchDebounceMs is how long the file watcher waits after the last
	// change before re-ingesting.
	WatchDebounceMs int `toml:"watch_debounce_ms"`
}

// ChatConfig configures retrieval and answer synthesis.
type ChatConfig struct {
	// TopK is how many chunks to retrieve per question.
	TopK int `toml:"top_k"`

	// AnswerMaxChars caps extractive answers.
	AnswerMaxChars int `toml:"answer_max_chars"`

	// PromptCharBudget caps the context section of the LLM prompt.
	PromptCharBudget int `toml:"prompt_char_budget"`

	// HistoryLimit is the default history page size.
	HistoryLimit int `toml:"history_limit"`
}

// EmbeddingConfig selects and configures the embedding service.
type EmbeddingConfig struct {
	// Model is the provider embedding model.
	Model string `toml:"model"`

	// Dimensions overrides the model's default vector size.
	Dimensions int `toml:"dimensions"`

	// ForceFake forces the deterministic hash embedder even when
	// provider credentials are available.
	ForceFake bool `toml:"force_fake"`

	// APIKey is the provider API key. Environment only (OPENAI_API_KEY),
	// never read from the config file.
	APIKey string `toml:"-"`
}

// LLMConfig selects and configures answer synthesis.
type LLMConfig struct {
	// Provider is "openai", "ollama" or "none".
	// Empty picks openai when a key is set, otherwise none.
	Provider string `toml:"provider"`

	// Model is the completion model.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint (Ollama host, Azure, ...).
	BaseURL string `toml:"base_url"`

	// ForceExtractive disables synthesis even when a provider is
	// configured. Answers are always verbatim source text.
	ForceExtractive bool `toml:"force_extractive"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Environment: "development",
		SourceDir:   "./docs",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Ingest: IngestConfig{
			ChunkSize:       800,
			ChunkOverlap:    150,
			WatchDebounceMs: 1500,
		},
		Chat: ChatConfig{
			TopK:             4,
			AnswerMaxChars:   600,
			PromptCharBudget: 6000,
			HistoryLimit:     50,
		},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (or ~/.ragdesk/config.toml when path is empty), then environment
// overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	// .env is a convenience for local development; absence is normal
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".ragdesk", "config.toml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
			logger.Debug("loaded config from %s", path)
		case os.IsNotExist(err):
			logger.Debug("no config file at %s, using defaults", path)
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	setString(&c.Environment, "RAGDESK_ENVIRONMENT")
	setString(&c.DataDir, "RAGDESK_DATA_DIR")
	setString(&c.SourceDir, "RAGDESK_SOURCE_DIR")
	setString(&c.Server.Host, "RAGDESK_HOST")
	setInt(&c.Server.Port, "RAGDESK_PORT")
	setInt(&c.Chat.TopK, "RAGDESK_TOP_K")
	setBool(&c.Embedding.ForceFake, "RAGDESK_FORCE_FAKE_EMBEDDER")
	setBool(&c.LLM.ForceExtractive, "RAGDESK_FORCE_EXTRACTIVE")
	setString(&c.LLM.Provider, "RAGDESK_LLM_PROVIDER")
	setString(&c.LLM.BaseURL, "RAGDESK_LLM_BASE_URL")

	c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
}

// Redacted returns the configuration as a map suitable for exposing
// over the API: secrets are masked, never echoed.
func (c *Config) Redacted() map[string]any {
	apiKey := "unset"
	if c.Embedding.APIKey != "" {
		apiKey = "***"
	}

	return map[string]any{
		"environment": c.Environment,
		"data_dir":    c.DataDir,
		"source_dir":  c.SourceDir,
		"server": map[string]any{
			"host": c.Server.Host,
			"port": c.Server.Port,
		},
		"ingest": map[string]any{
			"chunk_size":    c.Ingest.ChunkSize,
			"chunk_overlap": c.Ingest.ChunkOverlap,
		},
		"chat": map[string]any{
			"top_k":              c.Chat.TopK,
			"answer_max_chars":   c.Chat.AnswerMaxChars,
			"prompt_char_budget": c.Chat.PromptCharBudget,
			"history_limit":      c.Chat.HistoryLimit,
		},
		"embedding": map[string]any{
			"model":      c.Embedding.Model,
			"force_fake": c.Embedding.ForceFake,
			"api_key":    apiKey,
		},
		"llm": map[string]any{
			"provider":         c.LLM.Provider,
			"model":            c.LLM.Model,
			"force_extractive": c.LLM.ForceExtractive,
		},
	}
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn("ignoring %s=%q: not an integer", key, v)
		return
	}
	*dst = n
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		logger.Warn("ignoring %s=%q: not a boolean", key, v)
		return
	}
	*dst = b
}
