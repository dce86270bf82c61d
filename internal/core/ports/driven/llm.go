package driven

import "context"

// LLMService produces model completions for rule reviews and other
// prompt-driven operations.
//
// Implementations may include:
//   - OpenAI (GPT-4 class models)
//   - Anthropic (Claude)
//   - Offline responder (deterministic, keyed on prompt content)
type LLMService interface {
	// Complete produces a completion for the system and user prompts.
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before committing to a provider.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures completion behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
