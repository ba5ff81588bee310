package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsForce bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the corpus location, embedding provider, generator
and sweep parameters.

Settings are read from sercha-rag.toml (or --config), then .env (or
--env-file), then the environment. API keys are only kept in .env.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Long: `Writes the default settings to sercha-rag.toml (or --config) using the
offline lexical embedder, so evaluate works without any service.`,
	Args: cobra.NoArgs,
	RunE: runSettingsInit,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the corpus and AI providers step by step.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

func init() {
	settingsInitCmd.Flags().BoolVarP(&settingsForce, "force", "f", false, "overwrite an existing config file")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

// loadSettingsForEdit returns settings even when they fail validation.
// invalid holds the configuration problem; err is any other failure.
func loadSettingsForEdit() (settings domain.Settings, invalid, err error) {
	settings, err = loadSettings()
	if errors.Is(err, domain.ErrConfiguration) {
		return settings, err, nil
	}
	return settings, nil, err
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, invalid, err := loadSettingsForEdit()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Corpus]")
	cmd.Printf("  Documents: %s\n", settings.DocumentsPath)
	cmd.Printf("  Questions: %s\n", settings.QuestionsFile)
	cmd.Printf("  Prompts: %s\n", valueOr(settings.PromptDir, "(built-in)"))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", valueOr(settings.Embedding.Model, "(not set)"))
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", apiKeyStatus(settings.Embedding.APIKey))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Generator]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: (none, answers fall back to a fixed apology)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", valueOr(settings.LLM.Model, "(provider default)"))
		if settings.LLM.Provider.RequiresAPIKey() {
			cmd.Printf("  API Key: %s\n", apiKeyStatus(settings.LLM.APIKey))
		}
		cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Root: %s\n", settings.Index.Root)
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	cmd.Printf("  Strategy: %s\n", settings.Index.Strategy)
	cmd.Printf("  Chunk size: %d, overlap: %d, top k: %d\n",
		settings.Index.ChunkSize, settings.Index.ChunkOverlap, settings.TopK)
	cmd.Println()

	cmd.Println("[Sweep]")
	cmd.Printf("  Sizes: %v\n", settings.Sweep.ChunkSizes)
	cmd.Printf("  Overlaps: %v\n", settings.Sweep.ChunkOverlaps)
	cmd.Printf("  K: %v\n", settings.Sweep.TopK)
	cmd.Println()

	if invalid != nil {
		cmd.Printf("Warning: %s\n", oneLine(invalid.Error()))
		cmd.Println("Run 'sercha-rag settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsInit(cmd *cobra.Command, _ []string) error {
	if bootstrap == nil || bootstrap.SaveSettings == nil {
		return errors.New("settings store not configured")
	}

	path := cfgFile
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil && !settingsForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	settings := domain.DefaultSettings()
	settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	if err := bootstrap.SaveSettings(path, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Wrote default settings to %s\n", path)
	return nil
}

// defaultConfigFile is where init and the wizard write without --config.
const defaultConfigFile = "sercha-rag.toml"

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if bootstrap == nil || bootstrap.SaveSettings == nil {
		return errors.New("settings store not configured")
	}

	settings, _, err := loadSettingsForEdit()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Sercha RAG Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Corpus
	cmd.Println("Step 1: Corpus")
	cmd.Println("--------------")
	cmd.Printf("Documents directory [%s]: ", settings.DocumentsPath)
	if v := readLine(reader); v != "" {
		settings.DocumentsPath = v
	}
	cmd.Printf("Questions file [%s]: ", settings.QuestionsFile)
	if v := readLine(reader); v != "" {
		settings.QuestionsFile = v
	}
	cmd.Println()

	// Step 2: Embedding provider
	cmd.Println("Step 2: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureEmbeddingProvider(cmd, reader, &settings); err != nil {
		return err
	}

	// Step 3: Generator
	cmd.Println("Step 3: Configure Generator")
	cmd.Println("---------------------------")
	if err := configureLLMProvider(cmd, reader, &settings); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = defaultConfigFile
	}
	if err := bootstrap.SaveSettings(path, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %s\n", oneLine(err.Error()))
	} else {
		cmd.Printf("All settings are valid and saved to %s.\n", path)
	}
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader, settings *domain.Settings) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if selected.RequiresAPIKey() {
		key, err := promptAPIKey(cmd, reader, selected)
		if err != nil {
			return err
		}
		if key != "" {
			settings.Embedding.APIKey = key
		}
	}

	settings.Embedding.Provider = selected
	settings.Embedding.Model = model
	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selected.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for the generator - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader, settings *domain.Settings) error {
	cmd.Println("Select Generator Provider")
	cmd.Println("  0. None (answers fall back to a fixed apology)")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [0]: ")
	idx := parseChoice(readLine(reader), len(providers), 0)
	if idx == 0 {
		settings.LLM.Provider = ""
		settings.LLM.Model = ""
		cmd.Println("Generator disabled.")
		cmd.Println()
		return nil
	}
	selected := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if selected.RequiresAPIKey() {
		key, err := promptAPIKey(cmd, reader, selected)
		if err != nil {
			return err
		}
		if key != "" {
			settings.LLM.APIKey = key
		}
	}

	settings.LLM.Provider = selected
	settings.LLM.Model = model
	cmd.Printf("Generator configured: %s (%s)\n\n", selected.Description(), model)
	return nil
}

// promptAPIKey asks for provider's key and stores it in the env file.
// An empty answer keeps the current key and returns "".
func promptAPIKey(cmd *cobra.Command, reader *bufio.Reader, provider domain.AIProvider) (string, error) {
	if bootstrap.SaveAPIKey == nil {
		return "", errors.New("API key store not configured")
	}

	cmd.Print("Enter API key (leave empty to keep the current one): ")
	apiKey := readPassword(cmd.InOrStdin(), reader)
	cmd.Println()
	if apiKey == "" {
		return "", nil
	}

	if err := bootstrap.SaveAPIKey(envFile, provider, apiKey); err != nil {
		return "", fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key saved (%s).\n", maskAPIKey(apiKey))
	return apiKey, nil
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
	if err != nil || val < 0 || val > maxVal {
		return defaultVal
	}
	if val == 0 && defaultVal != 0 {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func apiKeyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
