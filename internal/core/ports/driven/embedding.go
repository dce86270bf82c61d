package driven

import "context"

// EmbeddingService maps text to fixed-dimension vectors. It only
// encodes; storing and searching the vectors is VectorIndex's job.
//
// Providers: OpenAI (text-embedding-3-small/-large), Ollama
// (nomic-embed-text, all-minilm), and a deterministic hash encoder
// that needs no credentials and returns bit-identical vectors for
// identical text, so offline runs stay reproducible.
type EmbeddingService interface {
	// Embed encodes one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch encodes texts in bulk. The output holds one vector
	// per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length every Embed call produces.
	// The vector index is sized against it.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping makes a lightweight request to confirm the provider is
	// reachable before a run commits to it.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
