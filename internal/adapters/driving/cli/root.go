// Package cli wires the cobra command tree to the driving services.
//
// Commands hold no business logic: they validate arguments, call one
// service and render the result. Services are injected once from main
// via SetServices; a command whose service is missing fails with a
// "not configured" error instead of panicking.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
	"github.com/trustlens-labs/trustlens-cli/internal/logger"
)

// version is the build version, overridden via SetVersion or ldflags.
var version = "dev"

// Injected service implementations. Nil until SetServices runs.
var (
	ingestService   driving.IngestService
	reviewService   driving.ReviewService
	searchService   driving.SearchService
	rulesService    driving.RulesService
	settingsService driving.SettingsService
	explainService  driving.ExplainService
)

// Services bundles the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Review   driving.ReviewService
	Search   driving.SearchService
	Rules    driving.RulesService
	Settings driving.SettingsService
	Explain  driving.ExplainService
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	reviewService = s.Review
	searchService = s.Search
	rulesService = s.Rules
	settingsService = s.Settings
	explainService = s.Explain
}

// SetVersion overrides the reported build version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "trustlens",
	Short: "Contract compliance review from the terminal",
	Long: `TrustLens reviews contracts against structured compliance rules.

Ingest parsed contract pages, manage the rule inventory, run reviews
that cite quoted evidence, search indexed clauses and ask follow-up
questions about any verdict.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose log output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
