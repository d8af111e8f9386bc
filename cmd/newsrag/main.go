package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/xhad/newsrag/pkg/config"
	"github.com/xhad/newsrag/pkg/engine"
	"github.com/xhad/newsrag/pkg/llm"
	"github.com/xhad/newsrag/pkg/processor"
	"github.com/xhad/newsrag/pkg/scraper"
	"github.com/xhad/newsrag/pkg/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// rootFlags layers the command line over the config file: any flag
// left at its zero value keeps the config (or default) setting.
type rootFlags struct {
	configPath string
	indexPath  string
	topK       int
	addr       string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "newsrag",
		Short:         "Research news articles with retrieval-augmented answers",
		Long:          "newsrag fetches news article URLs, indexes their text into a local vector store, and answers questions about them using a hosted language model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flags.indexPath, "index-path", "", "location of the vector index directory")
	root.PersistentFlags().IntVar(&flags.topK, "top-k", 0, "number of chunks retrieved per question")
	root.PersistentFlags().StringVar(&flags.addr, "addr", "", "listen address for the web interface")

	root.AddCommand(
		newServeCmd(flags),
		newIngestCmd(flags),
		newAskCmd(flags),
		newClearCmd(flags),
	)

	return root
}

func applyFlagOverrides(cfg *config.Config, flags *rootFlags) {
	if flags.indexPath != "" {
		cfg.Index.Path = flags.indexPath
	}
	if flags.topK > 0 {
		cfg.Index.TopK = flags.topK
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
}

// loadConfig loads .env and the config file, applies flag overrides,
// and validates provider settings when the command needs the hosted
// providers.
func loadConfig(flags *rootFlags, needProviders bool) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg, flags)

	if needProviders {
		if errs := cfg.Validate(); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
		}
	}

	return cfg, nil
}

// resolveMarker consumes the deferred-deletion marker before any index
// access, printing the outcome.
func resolveMarker(indexPath string) (store.StartupAction, error) {
	action, err := store.NewLifecycle(indexPath).ResolveStartup()
	switch action {
	case store.StartupDeleted:
		color.Green("Database cleared successfully on startup")
	case store.StartupLocked:
		color.Red("%v", err)
	}
	return action, err
}

type pipeline struct {
	scraper   *scraper.Scraper
	processor processor.Processor
	store     *store.VectorStore
	engine    *engine.Engine
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	embedder, err := llm.NewEmbedderWithConfig(ctx, llm.EmbedderConfig{
		Model:  cfg.Embedding.Model,
		APIKey: cfg.Embedding.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	chat, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		IndexPath:   cfg.Index.Path,
		SearchLimit: cfg.Index.TopK,
	}, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	return &pipeline{
		scraper: scraper.NewWithConfig(scraper.ScraperConfig{
			Timeout:   time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
			UserAgent: cfg.Fetcher.UserAgent,
			RateLimit: cfg.Fetcher.RateLimit,
		}),
		processor: processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize:    cfg.Processor.ChunkSize,
			ChunkOverlap: cfg.Processor.ChunkOverlap,
		}),
		store:  vectorStore,
		engine: engine.NewWithConfig(engine.Config{TopK: cfg.Index.TopK}, vectorStore, chat),
	}, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
