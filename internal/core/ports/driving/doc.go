// Package driving holds the interfaces through which the CLI and TUI
// call into the core: ingest, review, search, rules, explain and
// settings. The services package provides the implementations; the
// command layer depends only on these contracts so tests can swap in
// doubles.
package driving
