// Package app wires the adapters and core services from a Settings value.
package app

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/corpus"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/fetch"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/questions"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/jsondoc"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// App holds every service built from one Settings value.
type App struct {
	settings  domain.Settings
	ai        *ai.InitResult
	corpus    *corpus.Directory
	questions *questions.FileSource
	prompts   *file.PromptStore
	indexer   *services.IndexService

	answerRetriever *services.Retriever
	answers         *services.AnswerService
}

// LoadSettings reads settings from configPath and envFile.
// Empty paths use file.DefaultConfigFile and file.DefaultEnvFile.
func LoadSettings(configPath, envFile string) (domain.Settings, error) {
	var opts []file.LoaderOption
	if envFile != "" {
		opts = append(opts, file.WithEnvFile(envFile))
	}
	return file.NewLoader(configPath, opts...).Load()
}

// SaveSettings writes settings as TOML, without API keys.
func SaveSettings(path string, settings domain.Settings) error {
	return file.Save(path, settings)
}

// New creates the application. The embedding provider must be reachable;
// an unusable generator only produces a warning.
func New(ctx context.Context, settings domain.Settings) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	store, err := newIndexStore(settings.Index)
	if err != nil {
		return nil, err
	}

	result, err := ai.Initialise(ctx, &settings)
	if err != nil {
		return nil, err
	}

	a := &App{
		settings:  settings,
		ai:        result,
		corpus:    corpus.NewDirectory(settings.DocumentsPath),
		questions: questions.NewFileSource(settings.QuestionsFile),
		prompts:   file.NewPromptStore(settings.PromptDir),
	}

	a.indexer = services.NewIndexService(
		store,
		result.EmbeddingService,
		a.corpus,
		postprocessors.NewBuilder(settings.Index.Strategy),
		services.WithBatchSize(settings.Index.BatchSize),
	)

	a.answerRetriever = services.NewRetriever(a.indexer, result.EmbeddingService, settings.Index.Run())
	a.answers = services.NewAnswerService(
		a.answerRetriever,
		result.LLMService,
		services.NewKeywordPromptPolicy(a.prompts, nil),
		services.WithAnswerK(settings.TopK),
		services.WithMaxTokens(settings.LLM.MaxTokens),
	)

	logger.Debug("Embedding model %s, index root %s (%s)",
		result.EmbeddingService.ModelName(), settings.Index.Root, settings.Index.Backend)
	return a, nil
}

func newIndexStore(cfg domain.IndexSettings) (driven.IndexStore, error) {
	switch cfg.Backend {
	case domain.IndexBackendMemory:
		return memory.NewIndexStore(), nil
	case domain.IndexBackendSQLite, "":
		store, err := sqlite.NewIndexStore(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}

// Settings returns the settings the app was built from.
func (a *App) Settings() domain.Settings {
	return a.settings
}

// Warnings returns non-fatal startup issues.
func (a *App) Warnings() []string {
	return a.ai.Warnings
}

// Indexer returns the index service.
func (a *App) Indexer() driving.IndexService {
	return a.indexer
}

// Evaluator returns a sweep evaluator. With reuse, indexes already on
// disk are loaded instead of rebuilt.
func (a *App) Evaluator(reuse bool, observe func(domain.SweepEvent)) driving.Evaluator {
	return services.NewEvaluator(a.indexer, a.ai.EmbeddingService, a.questions,
		services.WithReuse(reuse),
		services.WithObserver(observe),
	)
}

// Debugger returns the failure debugger.
func (a *App) Debugger() driving.FailureDebugger {
	return services.NewFailureDebugger(a.indexer, a.ai.EmbeddingService, a.questions)
}

// Retriever returns a new retriever for run. Callers call EnsureReady and Close.
func (a *App) Retriever(run domain.IndexRun) driving.Retriever {
	return services.NewRetriever(a.indexer, a.ai.EmbeddingService, run)
}

// Answers returns the answer service over the default run.
func (a *App) Answers() driving.AnswerService {
	return a.answers
}

// Refresh discards everything derived from the documents directory:
// cached documents, the answer retriever's index and every stored run.
// The next retrieval rebuilds from the current files.
func (a *App) Refresh(_ context.Context) error {
	a.corpus.Reload()
	if err := a.answerRetriever.Close(); err != nil {
		return fmt.Errorf("closing answer index: %w", err)
	}

	runs, err := a.indexer.List()
	if err != nil {
		return fmt.Errorf("listing indexes: %w", err)
	}
	for _, run := range runs {
		if err := a.indexer.Remove(run); err != nil {
			return fmt.Errorf("removing %s: %w", run.DirName(), err)
		}
		logger.Debug("Removed stale index %s", run.DirName())
	}
	logger.Info("Corpus changed, %d stale indexes removed", len(runs))
	return nil
}

// WatchCorpus reports the paths changed under the documents directory,
// one slice per debounced batch, until ctx is cancelled.
func (a *App) WatchCorpus(ctx context.Context) (<-chan []string, error) {
	w, err := corpus.NewWatcher(a.settings.DocumentsPath)
	if err != nil {
		return nil, err
	}

	out := make(chan []string)
	go func() {
		defer close(out)
		defer w.Close() //nolint:errcheck

		for batch := range w.Watch(ctx) {
			paths := make([]string, 0, len(batch))
			for _, c := range batch {
				logger.Debug("Corpus %s: %s", c.Kind, c.Path)
				paths = append(paths, c.Path)
			}
			select {
			case out <- paths:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close releases the AI clients and the answer retriever's index.
func (a *App) Close() error {
	err := a.answerRetriever.Close()
	a.ai.Close()
	return err
}

// NewConverter returns a converter for web pages and local files.
// It needs no settings.
func NewConverter() driving.Converter {
	return services.NewConverter(
		fetch.NewHTTPFetcher(fetch.Config{}),
		corpus.DefaultRegistry(),
		jsondoc.Encoder{},
		normalisers.DetectMIMEType,
	)
}
