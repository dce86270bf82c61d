package driven

// PromptStore provides access to LLM prompt templates.
// Implementations embed defaults in the binary and allow overrides
// from files in the config directory.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If no override exists, implementations return the embedded default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptReview is the per-rule review prompt. The template carries
	// named slots ({rule_id}, {rule_name}, {category}, {rule_type},
	// {risk_level}, {intent}, {params_formatted}, {chunks_formatted})
	// filled by the prompt assembler.
	PromptReview = "review"

	// PromptReviewSystem is the system prompt sent with every review
	// completion. It has no slots.
	PromptReviewSystem = "review_system"
)
