// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PageParser: Reads parsed page/span files from disk
//   - DocumentStore: Document and chunk persistence
//   - RuleStore: Compliance rule persistence
//   - ReviewStore: Review task persistence
//   - SessionStore: Explain session persistence
//   - ConfigStore: Application configuration
//   - EmbeddingService: Generates vector embeddings. The deterministic
//     provider needs no credentials, so offline runs still work.
//   - VectorIndex: Vector storage and similarity search
//   - LLMService: Review completions. The offline provider keeps reviews
//     deterministic without network access.
//   - ReviewOutputValidator: Checks model output against the result schema
//   - PromptStore: Prompt templates with embedded defaults
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RuleSource: Loads rule files and watches for edits. Without it, rules
//     come only from the store.
//   - AIConfigValidator: Pings providers before committing to a
//     configuration. Without it, misconfiguration surfaces on first use.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
