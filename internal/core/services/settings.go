package services

import (
	"fmt"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedDims     = "embedding.dimensions"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyVectorBackend = "vector_index.backend"
	keyChunkMin      = "chunk.min_size"
	keyChunkMax      = "chunk.max_size"
	keyChunkTarget   = "chunk.target_size"
	keyMaxQueries    = "review.max_queries_per_rule"
	keyMaxChunks     = "review.max_retrieved_chunks"
	keyRulesDir      = "rules.dir"
)

// ollamaDefaultBaseURL is where a stock local Ollama listens.
const ollamaDefaultBaseURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		VectorBackend: s.getBackend(keyVectorBackend, defaults.VectorBackend),
		Chunk: domain.ChunkSettings{
			MinSize:    s.getInt(keyChunkMin, defaults.Chunk.MinSize),
			MaxSize:    s.getInt(keyChunkMax, defaults.Chunk.MaxSize),
			TargetSize: s.getInt(keyChunkTarget, defaults.Chunk.TargetSize),
		},
		Review: domain.ReviewSettings{
			MaxQueriesPerRule:  s.getInt(keyMaxQueries, defaults.Review.MaxQueriesPerRule),
			MaxRetrievedChunks: s.getInt(keyMaxChunks, defaults.Review.MaxRetrievedChunks),
		},
		RulesDir: s.configStore.GetString(keyRulesDir),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedDims, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	// Save vector, chunking and review settings
	if err := s.configStore.Set(keyVectorBackend, settings.VectorBackend.String()); err != nil {
		return fmt.Errorf("save vector backend: %w", err)
	}
	if err := s.configStore.Set(keyChunkMin, settings.Chunk.MinSize); err != nil {
		return fmt.Errorf("save chunk min_size: %w", err)
	}
	if err := s.configStore.Set(keyChunkMax, settings.Chunk.MaxSize); err != nil {
		return fmt.Errorf("save chunk max_size: %w", err)
	}
	if err := s.configStore.Set(keyChunkTarget, settings.Chunk.TargetSize); err != nil {
		return fmt.Errorf("save chunk target_size: %w", err)
	}
	if err := s.configStore.Set(keyMaxQueries, settings.Review.MaxQueriesPerRule); err != nil {
		return fmt.Errorf("save review max_queries_per_rule: %w", err)
	}
	if err := s.configStore.Set(keyMaxChunks, settings.Review.MaxRetrievedChunks); err != nil {
		return fmt.Errorf("save review max_retrieved_chunks: %w", err)
	}
	if err := s.configStore.Set(keyRulesDir, settings.RulesDir); err != nil {
		return fmt.Errorf("save rules dir: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !providerIn(provider, domain.AllEmbeddingProviders()) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Local providers need a base URL; cloud providers use their own
	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = ollamaDefaultBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Track the model's vector size so the index is built to match
	if dims, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = dims
	} else if provider == domain.AIProviderDeterministic {
		settings.Embedding.Dimensions = domain.DefaultAppSettings().Embedding.Dimensions
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !providerIn(provider, domain.AllLLMProviders()) {
		return fmt.Errorf("provider %s does not support completions", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	// Local providers need a base URL; cloud providers use their own
	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = ollamaDefaultBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetVectorBackend selects the vector index backend.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid vector backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.VectorBackend = backend
	return s.Save(settings)
}

// SetChunkSizes updates the segmentation token budgets.
func (s *SettingsService) SetChunkSizes(minSize, maxSize, targetSize int) error {
	if minSize <= 0 || maxSize <= 0 || targetSize <= 0 {
		return fmt.Errorf("%w: chunk sizes must be positive", domain.ErrInvalidInput)
	}
	if minSize > targetSize || targetSize > maxSize {
		return fmt.Errorf("%w: chunk sizes must satisfy min <= target <= max", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunk = domain.ChunkSettings{
		MinSize:    minSize,
		MaxSize:    maxSize,
		TargetSize: targetSize,
	}
	return s.Save(settings)
}

// SetReviewLimits updates the retrieval limits used per rule.
func (s *SettingsService) SetReviewLimits(maxQueriesPerRule, maxRetrievedChunks int) error {
	if maxQueriesPerRule <= 0 || maxRetrievedChunks <= 0 {
		return fmt.Errorf("%w: review limits must be positive", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Review = domain.ReviewSettings{
		MaxQueriesPerRule:  maxQueriesPerRule,
		MaxRetrievedChunks: maxRetrievedChunks,
	}
	return s.Save(settings)
}

// SetRulesDir sets the directory watched for rule files. An empty
// directory turns the watcher off.
func (s *SettingsService) SetRulesDir(dir string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.RulesDir = dir
	return s.Save(settings)
}

// Validate checks if current settings are coherent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %s is not configured", settings.LLM.Provider)
	}
	if !settings.VectorBackend.IsValid() {
		return fmt.Errorf("invalid vector backend: %s", settings.VectorBackend)
	}
	if settings.Chunk.MinSize > settings.Chunk.TargetSize || settings.Chunk.TargetSize > settings.Chunk.MaxSize {
		return fmt.Errorf("chunk sizes must satisfy min <= target <= max, got %d/%d/%d",
			settings.Chunk.MinSize, settings.Chunk.TargetSize, settings.Chunk.MaxSize)
	}
	if settings.Review.MaxQueriesPerRule <= 0 || settings.Review.MaxRetrievedChunks <= 0 {
		return fmt.Errorf("review limits must be positive, got %d queries / %d chunks",
			settings.Review.MaxQueriesPerRule, settings.Review.MaxRetrievedChunks)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(key string, defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func providerIn(provider domain.AIProvider, providers []domain.AIProvider) bool {
	for _, p := range providers {
		if p == provider {
			return true
		}
	}
	return false
}
