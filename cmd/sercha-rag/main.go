// Command sercha-rag evaluates retrieval quality over a document corpus.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/app"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set via -ldflags at release time.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.CaptureStandardLog()
	cli.SetVersion(version)
	cli.SetBootstrap(&cli.Bootstrap{
		LoadSettings: app.LoadSettings,
		SaveSettings: app.SaveSettings,
		SaveAPIKey:   saveAPIKey,
		Start:        start,
		NewConverter: app.NewConverter,
	})

	if err := cli.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func start(ctx context.Context, settings domain.Settings) (cli.Services, error) {
	a, err := app.New(ctx, settings)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func saveAPIKey(envFile string, provider domain.AIProvider, key string) error {
	if envFile == "" {
		envFile = file.DefaultEnvFile
	}
	return file.SaveEnv(envFile, file.APIKeyEnv(provider), key)
}
