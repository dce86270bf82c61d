package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking budgets, retrieval limits
and the rules directory.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one setting",
}

var settingsSetEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	RunE:  runSettingsSetEmbedding,
}

var settingsSetLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider",
	RunE:  runSettingsSetLLM,
}

var settingsSetVectorCmd = &cobra.Command{
	Use:   "vector [backend]",
	Short: "Select the vector index backend (memory, ivf)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetVector,
}

var settingsSetChunksCmd = &cobra.Command{
	Use:   "chunks [min] [max] [target]",
	Short: "Set segmentation token budgets",
	Args:  cobra.ExactArgs(3),
	RunE:  runSettingsSetChunks,
}

var settingsSetLimitsCmd = &cobra.Command{
	Use:   "limits [max-queries] [max-chunks]",
	Short: "Set per-rule retrieval limits",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSetLimits,
}

var settingsSetRulesDirCmd = &cobra.Command{
	Use:   "rules-dir [dir]",
	Short: "Set the directory watched for rule packs",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetRulesDir,
}

func init() {
	settingsSetCmd.AddCommand(settingsSetEmbeddingCmd)
	settingsSetCmd.AddCommand(settingsSetLLMCmd)
	settingsSetCmd.AddCommand(settingsSetVectorCmd)
	settingsSetCmd.AddCommand(settingsSetChunksCmd)
	settingsSetCmd.AddCommand(settingsSetLimitsCmd)
	settingsSetCmd.AddCommand(settingsSetRulesDirCmd)

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	if settings.LLM.Model != "" {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
	}
	if settings.LLM.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status = "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorBackend.Description())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Min: %d, Target: %d, Max: %d tokens\n",
		settings.Chunk.MinSize, settings.Chunk.TargetSize, settings.Chunk.MaxSize)
	cmd.Println()

	cmd.Println("[Review]")
	cmd.Printf("  Max queries per rule: %d\n", settings.Review.MaxQueriesPerRule)
	cmd.Printf("  Max retrieved chunks: %d\n", settings.Review.MaxRetrievedChunks)
	cmd.Println()

	cmd.Println("[Rules]")
	if settings.RulesDir != "" {
		cmd.Printf("  Watched dir: %s\n", settings.RulesDir)
	} else {
		cmd.Printf("  Watched dir: (none)\n")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'trustlens settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("TrustLens Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Retrieval embeds contract chunks and rule queries with this provider.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("Rule verdicts come from this provider.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 3: Select Vector Index Backend")
	cmd.Println("-----------------------------------")
	backends := domain.AllVectorBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(backends), 1)
	selectedBackend := backends[idx-1]

	if err := settingsService.SetVectorBackend(selectedBackend); err != nil {
		return fmt.Errorf("failed to set vector backend: %w", err)
	}
	cmd.Printf("Set vector backend to: %s\n\n", selectedBackend.Description())

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsSetEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsSetLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureLLMProvider(cmd, reader)
}

func runSettingsSetVector(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.VectorBackend(args[0])
	if err := settingsService.SetVectorBackend(backend); err != nil {
		return fmt.Errorf("failed to set vector backend: %w", err)
	}

	cmd.Printf("Vector backend set to: %s\n", backend.Description())
	return nil
}

func runSettingsSetChunks(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	sizes := make([]int, 3)
	for i, arg := range args {
		val, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid chunk size %q: %w", arg, err)
		}
		sizes[i] = val
	}

	if err := settingsService.SetChunkSizes(sizes[0], sizes[1], sizes[2]); err != nil {
		return fmt.Errorf("failed to set chunk sizes: %w", err)
	}

	cmd.Printf("Chunk sizes set to min %d, max %d, target %d tokens.\n", sizes[0], sizes[1], sizes[2])
	return nil
}

func runSettingsSetLimits(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	maxQueries, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid max queries %q: %w", args[0], err)
	}
	maxChunks, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid max chunks %q: %w", args[1], err)
	}

	if err := settingsService.SetReviewLimits(maxQueries, maxChunks); err != nil {
		return fmt.Errorf("failed to set review limits: %w", err)
	}

	cmd.Printf("Review limits set to %d queries per rule, %d retrieved chunks.\n", maxQueries, maxChunks)
	return nil
}

func runSettingsSetRulesDir(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetRulesDir(args[0]); err != nil {
		return fmt.Errorf("failed to set rules directory: %w", err)
	}

	if args[0] == "" {
		cmd.Println("Rules directory cleared; watching is off.")
	} else {
		cmd.Printf("Rules directory set to %s.\n", args[0])
	}
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
