// Package cli implements the ragdesk command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragdesk/ragdesk/internal/adapters/driven/embedding/hash"
	openaiembed "github.com/ragdesk/ragdesk/internal/adapters/driven/embedding/openai"
	"github.com/ragdesk/ragdesk/internal/adapters/driven/llm/ollama"
	openaillm "github.com/ragdesk/ragdesk/internal/adapters/driven/llm/openai"
	"github.com/ragdesk/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/ragdesk/ragdesk/internal/chunker"
	"github.com/ragdesk/ragdesk/internal/config"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/core/services"
	"github.com/ragdesk/ragdesk/internal/loaders"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	flagVerbose bool
	flagConfig  string
	flagDataDir string
)

// Wired services, built once per invocation by initServices.
var (
	cfg      *config.Config
	store    *sqlite.Store
	embedder driven.EmbeddingService
	ingestor driving.Ingestor
	agent    driving.SupportAgent
)

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Answer support questions from your own documents",
	Long: `ragdesk ingests a directory of support documents (.txt, .md, .pdf),
indexes them for semantic retrieval and answers questions with citations.

Without provider credentials it runs fully offline: a deterministic
embedder replaces the provider and answers are verbatim source text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.ragdesk/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.ragdesk/data)")
}

// Execute runs the CLI.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices loads configuration and wires the full service graph.
// Commands that touch the pipeline call it first.
func initServices() error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder, err = buildEmbedder()
	if err != nil {
		return err
	}
	llm := buildLLM()

	ch := chunker.New(
		chunker.WithChunkSize(cfg.Ingest.ChunkSize),
		chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
	)

	ingestor = services.NewIngestService(loaders.New(), ch, embedder, store.VectorStore(), store)
	agent = services.NewChatService(
		embedder,
		store.VectorStore(),
		store.ConversationStore(),
		llm,
		store,
		services.ChatConfig{
			TopK:             cfg.Chat.TopK,
			AnswerMaxChars:   cfg.Chat.AnswerMaxChars,
			PromptCharBudget: cfg.Chat.PromptCharBudget,
			HistoryLimit:     cfg.Chat.HistoryLimit,
		},
	)

	return nil
}

// buildEmbedder picks the embedding variant. No credentials (or an
// explicit force_fake) means the deterministic hash embedder; the
// variant is fixed here, never per request.
func buildEmbedder() (driven.EmbeddingService, error) {
	if cfg.Embedding.ForceFake || cfg.Embedding.APIKey == "" {
		logger.Info("Using deterministic hash embedder")
		return hash.New(hash.WithDimensions(cfg.Embedding.Dimensions)), nil
	}

	logger.Info("Using OpenAI embedder (%s)", cfg.Embedding.Model)
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
}

// buildLLM picks the synthesis provider, or nil for extractive-only
// answers.
func buildLLM() driven.LLMService {
	if cfg.LLM.ForceExtractive {
		logger.Info("Synthesis disabled, answers are extractive")
		return nil
	}

	switch cfg.LLM.Provider {
	case "ollama":
		logger.Info("Using Ollama for synthesis (%s)", cfg.LLM.Model)
		return ollama.NewLLMService(ollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	case "openai", "":
		if cfg.Embedding.APIKey == "" {
			logger.Info("No API key, answers are extractive")
			return nil
		}
		logger.Info("Using OpenAI for synthesis (%s)", cfg.LLM.Model)
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			logger.Warn("LLM unavailable, answers are extractive: %v", err)
			return nil
		}
		return svc
	default:
		logger.Info("Unknown LLM provider %q, answers are extractive", cfg.LLM.Provider)
		return nil
	}
}

// closeServices releases everything initServices opened.
func closeServices() {
	if embedder != nil {
		_ = embedder.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}
