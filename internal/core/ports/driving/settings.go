package driving

import "github.com/trustlens-labs/trustlens-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetVectorBackend selects the vector index backend.
	SetVectorBackend(backend domain.VectorBackend) error

	// SetChunkSizes updates the segmentation token budgets.
	SetChunkSizes(minSize, maxSize, targetSize int) error

	// SetReviewLimits updates the retrieval limits used per rule.
	SetReviewLimits(maxQueriesPerRule, maxRetrievedChunks int) error

	// SetRulesDir sets the directory watched for rule files.
	SetRulesDir(dir string) error

	// Validate checks if current settings are coherent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
