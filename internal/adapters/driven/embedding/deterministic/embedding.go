// Package deterministic provides a credential-free embedding service.
// Vectors are derived from a cryptographic hash of the text, so the same
// text always encodes to the same vector. The geometry carries no semantic
// meaning; the point is reproducible offline runs and tests.
package deterministic

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches the smallest common embedding size so the
// index stays cheap in offline mode.
const DefaultDimensions = 384

// ModelName identifies the encoder in stats and logs.
const ModelName = "deterministic-sha256"

// EmbeddingService encodes text into L2-normalised vectors built from
// the text's SHA-256 digest, cycling the digest bytes to fill the
// requested dimension.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a deterministic embedding service.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed generates the vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return s.encode(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = s.encode(text)
	}
	return embeddings, nil
}

func (s *EmbeddingService) encode(text string) []float32 {
	digest := sha256.Sum256([]byte(text))

	vector := make([]float32, s.dimensions)
	var norm float64
	for i := range vector {
		v := float64(digest[i%len(digest)]) / 255.0
		vector[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}

	return vector
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the encoder identifier.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds; there is no service to reach.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
