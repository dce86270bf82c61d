// Command trustlens reviews contracts against structured compliance
// rules from the terminal.
//
// main is the composition root: it loads settings, builds the
// embedding, LLM and vector index adapters through the ai factory,
// wires the services and hands control to the cobra command tree.
// When no provider can be built the pipeline commands are left
// unconfigured so the rest of the CLI keeps working.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/ai"
	configfile "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/config/file"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/parser/pagefile"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/rules/rulefile"
	storagemem "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/storage/memory"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/storage/sqlite"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driving/cli"
	"github.com/trustlens-labs/trustlens-cli/internal/chunker"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/services"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; it only supplies API keys the config
	// file does not hold.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	applyEnvKeys(settings)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	docStore := store.DocumentStore()
	ruleStore := store.RuleStore()

	svcs := cli.Services{
		Rules:    services.NewRulesService(ruleStore, rulefile.New()),
		Settings: settingsService,
		Explain:  services.NewExplainService(store.SessionStore(), store.ReviewStore(), ruleStore),
	}

	aiStack, err := ai.Initialize(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: AI providers unavailable: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'trustlens settings wizard' to configure providers.")
	} else {
		defer aiStack.Close()
		for _, warning := range aiStack.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}

		pipeline := services.NewEmbeddingPipeline(aiStack.EmbeddingService, aiStack.VectorIndex)

		// The vector index lives in memory, so every process start
		// refills it from the chunks the metadata store kept.
		if _, err := pipeline.Rebuild(context.Background(), docStore); err != nil {
			return fmt.Errorf("rebuilding vector index: %w", err)
		}

		segmenter := chunker.New(
			chunker.WithMinSize(settings.Chunk.MinSize),
			chunker.WithMaxSize(settings.Chunk.MaxSize),
			chunker.WithTargetSize(settings.Chunk.TargetSize),
		)
		svcs.Ingest = services.NewIngestService(pagefile.New(), docStore, pipeline, segmenter)
		svcs.Search = services.NewSearchService(pipeline)

		prompts, err := configfile.NewPromptStore("")
		if err != nil {
			return fmt.Errorf("opening prompt store: %w", err)
		}
		validator, err := ai.NewOutputValidator()
		if err != nil {
			return fmt.Errorf("compiling output schema: %w", err)
		}

		svcs.Review = services.NewReviewService(
			docStore,
			ruleStore,
			storagemem.NewReviewStore(),
			store.ReviewStore(),
			pipeline,
			prompts,
			aiStack.LLMService,
			validator,
			services.WithMaxRetrievedChunks(settings.Review.MaxRetrievedChunks),
			services.WithQueryBuilder(services.NewQueryBuilder(
				services.WithMaxQueriesPerRule(settings.Review.MaxQueriesPerRule),
			)),
		)
	}

	cli.SetServices(svcs)
	cli.SetVersion(version)
	return cli.Execute()
}

// applyEnvKeys fills in API keys from the environment when the config
// file has none. OPENAI_API_KEY and ANTHROPIC_API_KEY follow the
// providers' own conventions.
func applyEnvKeys(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if settings.LLM.APIKey == "" {
		switch settings.LLM.Provider {
		case domain.AIProviderOpenAI:
			settings.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case domain.AIProviderAnthropic:
			settings.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}
