package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (LLM only).
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderDeterministic is the offline hash-based encoder
	// (embeddings only). Reproducible, requires no credentials.
	AIProviderDeterministic AIProvider = "deterministic"

	// AIProviderOffline is the deterministic canned responder
	// (LLM only). Used for offline runs and tests.
	AIProviderOffline AIProvider = "offline"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama,
		AIProviderDeterministic, AIProviderOffline:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsOffline returns true if this provider runs without any service.
func (p AIProvider) IsOffline() bool {
	return p == AIProviderDeterministic || p == AIProviderOffline
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderDeterministic:
		return "Deterministic hash encoder (offline)"
	case AIProviderOffline:
		return "Offline canned responder"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that can embed text.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderDeterministic,
	}
}

// AllLLMProviders returns providers that can complete prompts.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
		AIProviderOffline,
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector index backends.
const (
	// VectorBackendMemory recomputes exact cosine similarity against
	// every record per query. Right at single-document scale.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendIVF partitions normalized vectors into coarse
	// centroids and probes the nearest partitions. Approximate; falls
	// back to exact scoring while too small to train.
	VectorBackendIVF VectorBackend = "ivf"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendIVF:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "In-memory exact cosine (brute force)"
	case VectorBackendIVF:
		return "Inverted-file approximate inner product"
	default:
		return unknownDescription
	}
}

// AllVectorBackends returns all available backends.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{VectorBackendMemory, VectorBackendIVF}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or proxies).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's vector size; 0 means model default.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for proxies or local gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkSettings bounds segmentation in estimated tokens.
type ChunkSettings struct {
	// MinSize is the smallest chunk the packer aims for.
	MinSize int

	// MaxSize is the hard bound; longer paragraphs are sentence-split.
	MaxSize int

	// TargetSize is the greedy packing target.
	TargetSize int
}

// ReviewSettings holds review execution configuration.
type ReviewSettings struct {
	// MaxQueriesPerRule caps the query builder's output per rule.
	MaxQueriesPerRule int

	// MaxRetrievedChunks caps retrieval per rule after dedup.
	MaxRetrievedChunks int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// VectorBackend selects the index implementation.
	VectorBackend VectorBackend

	// Chunk bounds segmentation.
	Chunk ChunkSettings

	// Review holds review execution settings.
	Review ReviewSettings

	// RulesDir is watched for rule-pack changes when set.
	RulesDir string
}

// DefaultAppSettings returns settings with offline-safe defaults.
// Cloud providers must be configured explicitly via the settings wizard.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderDeterministic,
			Dimensions: 384,
		},
		LLM: LLMSettings{
			Provider: AIProviderOffline,
		},
		VectorBackend: VectorBackendMemory,
		Chunk: ChunkSettings{
			MinSize:    50,
			MaxSize:    300,
			TargetSize: 150,
		},
		Review: ReviewSettings{
			MaxQueriesPerRule:  3,
			MaxRetrievedChunks: 10,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderOllama: "nomic-embed-text",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderOllama:    "llama3.2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
	}
}
