package ai

import (
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator lets the settings service check a provider
// configuration by actually connecting to it, without depending on
// this package's factory functions directly.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding builds the named embedding provider and pings it.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}

// ValidateLLM builds the named LLM provider and pings it.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}
