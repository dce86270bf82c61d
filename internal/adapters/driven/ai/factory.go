// Package ai provides factory functions for creating AI service adapters.
//
// Provider selection is explicit: cloud providers are used only when
// their settings are complete, and an incomplete cloud configuration
// falls back to the offline adapters with a recorded warning rather
// than failing the command or guessing at import time.
package ai

import (
	"context"
	"fmt"
	"time"

	deterministicembed "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/embedding/deterministic"
	ollamaembed "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/llm/anthropic"
	offlinellm "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/llm/offline"
	ollamallm "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/llm/openai"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/vector/ivf"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/vector/memory"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if a cloud provider fell back to an offline one.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialize builds the embedding service, LLM service and vector index
// from settings. Incomplete cloud configurations degrade to the offline
// providers and record a warning; unreachable configured services fail.
func Initialize(settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	embedding := settings.Embedding
	if !embedding.IsConfigured() {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"embedding provider %q is not fully configured, using the deterministic encoder",
			embedding.Provider))
		result.FellBack = true
		embedding = domain.EmbeddingSettings{
			Provider:   domain.AIProviderDeterministic,
			Dimensions: settings.Embedding.Dimensions,
		}
	}
	embeddingSvc, err := CreateAndValidateEmbeddingService(&embedding)
	if err != nil {
		return nil, err
	}
	result.EmbeddingService = embeddingSvc

	llm := settings.LLM
	if !llm.IsConfigured() {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"LLM provider %q is not fully configured, using the offline reviewer",
			llm.Provider))
		result.FellBack = true
		llm = domain.LLMSettings{Provider: domain.AIProviderOffline}
	}
	llmSvc, err := CreateAndValidateLLMService(&llm)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.LLMService = llmSvc

	index, err := CreateVectorIndex(settings.VectorBackend)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorIndex = index

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'trustlens settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'trustlens settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'trustlens settings wizard' to fix",
			domain.ErrLLMUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'trustlens settings wizard' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// This is intended for use in the settings wizard to validate credentials on configuration.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return fmt.Errorf("embedding provider is not fully configured")
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
// This is intended for use in the settings wizard to validate credentials on configuration.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return fmt.Errorf("LLM provider is not fully configured")
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("embedding settings are required")
	}

	switch settings.Provider {
	case domain.AIProviderDeterministic:
		return deterministicembed.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use openai, ollama or deterministic")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("LLM settings are required")
	}

	switch settings.Provider {
	case domain.AIProviderOffline:
		return offlinellm.NewLLMService(), nil

	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateVectorIndex creates the vector index for the selected backend.
func CreateVectorIndex(backend domain.VectorBackend) (driven.VectorIndex, error) {
	switch backend {
	case domain.VectorBackendMemory:
		return memory.New(), nil

	case domain.VectorBackendIVF:
		return ivf.New(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s",
			domain.ErrVectorIndexUnavailable, backend)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
