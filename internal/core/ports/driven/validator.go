package driven

import "github.com/trustlens-labs/trustlens-cli/internal/core/domain"

// ReviewOutputValidator checks model output against the review result
// schema before it is accepted.
type ReviewOutputValidator interface {
	// Validate parses raw model output, tolerating a markdown code fence
	// around the JSON body, and returns the result it describes.
	// The returned error says what made the output unusable; callers
	// convert it into a rule-level failure rather than aborting the review.
	Validate(raw string) (*domain.ReviewResult, error)
}

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing
// connectivity to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
