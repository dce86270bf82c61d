package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRule indicates a rule failed schema validation.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrReviewInProgress indicates a review task is already running.
	ErrReviewInProgress = errors.New("review in progress")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Reviews fall back to the deterministic offline responder.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval falls back to the deterministic encoder.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Similarity retrieval is disabled without an index.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector's length does not match the
	// index's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotImplemented indicates the operation has no backing adapter.
	ErrNotImplemented = errors.New("not implemented")
)
