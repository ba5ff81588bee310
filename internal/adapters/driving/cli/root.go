// Package cli implements the sercha-rag command line.
package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// annotationServices marks commands that need the application started.
const annotationServices = "services"

var (
	cfgFile string
	envFile string
	verbose bool
)

// Services is everything the commands use from a started application.
type Services interface {
	Settings() domain.Settings
	Warnings() []string
	Indexer() driving.IndexService
	Evaluator(reuse bool, observe func(domain.SweepEvent)) driving.Evaluator
	Debugger() driving.FailureDebugger
	Retriever(run domain.IndexRun) driving.Retriever
	Answers() driving.AnswerService
	Refresh(ctx context.Context) error
	WatchCorpus(ctx context.Context) (<-chan []string, error)
	Close() error
}

// Bootstrap supplies the functions commands use to load settings and
// start the application.
type Bootstrap struct {
	// Empty paths select the default config and env files.
	LoadSettings func(configPath, envFile string) (domain.Settings, error)
	SaveSettings func(path string, settings domain.Settings) error
	SaveAPIKey   func(envFile string, provider domain.AIProvider, key string) error
	Start        func(ctx context.Context, settings domain.Settings) (Services, error)
	NewConverter func() driving.Converter
}

var (
	bootstrap *Bootstrap

	// services is started lazily for commands annotated with
	// annotationServices. Tests assign it directly.
	services     Services
	ownsServices bool
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Retrieval evaluation harness",
	Long: `sercha-rag chunks a document corpus, indexes it with an embedding model
and measures how often the expected passage is retrieved for a set of
evaluation questions.

Configuration comes from sercha-rag.toml, a .env file and the environment.
At minimum EMBEDDING_MODEL_NAME must be set.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default sercha-rag.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// SetBootstrap sets how commands load settings and start the application.
func SetBootstrap(b *Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and closes any services it started.
func Execute(ctx context.Context) error {
	defer closeServices()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrConfiguration) {
		rootCmd.PrintErrln("Configuration error:", oneLine(err.Error()))
		return err
	}
	rootCmd.PrintErrln("Error:", err)
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationServices] != "true" || services != nil {
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if bootstrap.Start == nil {
		return errors.New("application start not configured")
	}

	started, err := bootstrap.Start(cmd.Context(), settings)
	if err != nil {
		return err
	}
	for _, w := range started.Warnings() {
		cmd.PrintErrln("Warning:", w)
	}

	services = started
	ownsServices = true
	return nil
}

func loadSettings() (domain.Settings, error) {
	if bootstrap == nil || bootstrap.LoadSettings == nil {
		return domain.Settings{}, errors.New("settings loader not configured")
	}
	return bootstrap.LoadSettings(cfgFile, envFile)
}

func closeServices() {
	if services == nil || !ownsServices {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("Closing services: %v", err)
	}
	services = nil
	ownsServices = false
}

// needsServices marks cmd as requiring a started application.
func needsServices(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationServices] = "true"
	return cmd
}

// oneLine folds joined validation errors onto a single line.
func oneLine(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "; ")
}
