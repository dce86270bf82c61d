// Package domain defines the core business entities for TrustLens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Page / Span: Positioned text produced by the parsing collaborator
//   - Chunk: A retrieval-sized unit of document text with page metadata
//   - Rule: A structured compliance check with type, params and tags
//   - SearchQuery: A weighted retrieval query derived from a rule
//   - ReviewTask / ReviewResult: Review execution state and verdicts
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
