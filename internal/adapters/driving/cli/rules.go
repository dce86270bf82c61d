package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

var (
	rulesAll        bool
	ruleShowJSON    bool
	ruleParseJSON   bool
	importOverwrite bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage compliance rules",
	Long: `Manage the structured rule inventory used by reviews. Rules can
be written by hand, imported from YAML/JSON packs, or derived from
natural-language requirements with the built-in pattern bank.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show one rule in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add [requirement]",
	Short: "Derive a rule from a requirement sentence and store it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesAdd,
}

var rulesParseCmd = &cobra.Command{
	Use:   "parse [requirement]",
	Short: "Derive a rule from a requirement sentence without storing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesParse,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove [rule-id]",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRemove,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import rules from a YAML/JSON file or directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable [rule-id]",
	Short: "Include a rule in reviews",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesEnable,
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable [rule-id]",
	Short: "Exclude a rule from reviews without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDisable,
}

var rulesWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Reload rules whenever files in a directory change",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesWatch,
}

func init() {
	rulesListCmd.Flags().BoolVar(&rulesAll, "all", false, "include disabled rules")
	rulesShowCmd.Flags().BoolVar(&ruleShowJSON, "json", false, "output the rule as JSON")
	rulesParseCmd.Flags().BoolVar(&ruleParseJSON, "json", false, "output the derived rule as JSON")
	rulesImportCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "replace rules that already exist")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesParseCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rulesCmd.AddCommand(rulesWatchCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	rules, err := rulesService.List(context.Background(), !rulesAll)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	if len(rules) == 0 {
		cmd.Println("No rules found.")
		return nil
	}

	cmd.Println("Rules:")
	cmd.Println()
	for i := range rules {
		r := &rules[i]
		cmd.Printf("  %s\n", r.RuleID)
		cmd.Printf("    Name: %s, Type: %s, Risk: %s, v%d", r.Name, r.Type, r.RiskLevel, r.Version)
		if !r.Enabled {
			cmd.Printf(" (disabled)")
		}
		cmd.Println()
	}
	cmd.Printf("\nTotal: %d rules\n", len(rules))
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	rule, err := rulesService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get rule: %w", err)
	}

	if ruleShowJSON {
		return printJSON(cmd, rule)
	}
	printRule(cmd, rule)
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	ctx := context.Background()
	rule, err := rulesService.Parse(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to derive rule: %w", err)
	}
	if err := rulesService.Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to store rule: %w", err)
	}

	cmd.Printf("Added rule %s.\n\n", rule.RuleID)
	printRule(cmd, rule)
	return nil
}

func runRulesParse(cmd *cobra.Command, args []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	rule, err := rulesService.Parse(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to derive rule: %w", err)
	}

	if ruleParseJSON {
		return printJSON(cmd, rule)
	}
	printRule(cmd, rule)
	cmd.Println("Not stored. Use 'trustlens rules add' to keep it.")
	return nil
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	if err := rulesService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	cmd.Printf("Removed rule %s.\n", args[0])
	return nil
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	report, err := rulesService.Import(context.Background(), args[0], importOverwrite)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d rules (%d skipped, %d failed).\n",
		report.Imported, report.Skipped, report.Failed)
	return nil
}

func runRulesEnable(cmd *cobra.Command, args []string) error {
	return setRuleEnabled(cmd, args[0], true)
}

func runRulesDisable(cmd *cobra.Command, args []string) error {
	return setRuleEnabled(cmd, args[0], false)
}

func setRuleEnabled(cmd *cobra.Command, ruleID string, enabled bool) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	if err := rulesService.SetEnabled(context.Background(), ruleID, enabled); err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	if enabled {
		cmd.Printf("Enabled rule %s.\n", ruleID)
	} else {
		cmd.Printf("Disabled rule %s.\n", ruleID)
	}
	return nil
}

func runRulesWatch(cmd *cobra.Command, args []string) error {
	if rulesService == nil {
		return errors.New("rules service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for rule changes. Press Ctrl+C to stop.\n", args[0])
	if err := rulesService.Watch(ctx, args[0]); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped watching.")
	return nil
}

// printRule renders one rule as an indented field list.
func printRule(cmd *cobra.Command, rule *domain.Rule) {
	cmd.Printf("Rule: %s\n\n", rule.RuleID)
	cmd.Printf("  Name:     %s\n", rule.Name)
	if rule.Category != "" {
		cmd.Printf("  Category: %s\n", rule.Category)
	}
	cmd.Printf("  Type:     %s\n", rule.Type)
	cmd.Printf("  Risk:     %s\n", rule.RiskLevel)
	cmd.Printf("  Intent:   %s\n", rule.Intent)
	cmd.Printf("  Tags:     %s\n", strings.Join(rule.RetrievalTags, ", "))
	if len(rule.Params) > 0 {
		cmd.Printf("  Params:   %s\n", formatParams(rule.Params))
	}
	cmd.Printf("  Version:  %d\n", rule.Version)
	cmd.Printf("  Enabled:  %t\n", rule.Enabled)
	if rule.Description != "" {
		cmd.Printf("  Detail:   %s\n", rule.Description)
	}
}

// formatParams renders rule params as "key=value" pairs in key order.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(pairs, ", ")
}
