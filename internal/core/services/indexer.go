package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 32

// IndexService builds and attaches the per-run vector indexes.
type IndexService struct {
	store     driven.IndexStore
	embedder  driven.EmbeddingService
	corpus    driven.CorpusSource
	pipelines driven.PipelineBuilder
	batchSize int

	// setupMu guards runLocks. Each run's lock serialises Setup so two
	// retrievers for the same run never build into one directory at once.
	setupMu  sync.Mutex
	runLocks map[domain.IndexRun]*sync.Mutex
}

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewIndexService creates a new index service.
// The embedder is shared read-only across every run.
func NewIndexService(
	store driven.IndexStore,
	embedder driven.EmbeddingService,
	corpus driven.CorpusSource,
	pipelines driven.PipelineBuilder,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		store:     store,
		embedder:  embedder,
		corpus:    corpus,
		pipelines: pipelines,
		batchSize: DefaultBatchSize,
		runLocks:  make(map[domain.IndexRun]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build embeds chunks into a new index for run.
// On any failure the partial index is removed.
func (s *IndexService) Build(
	ctx context.Context, run domain.IndexRun, chunks []domain.Chunk,
) (driven.VectorIndex, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index for %s", domain.ErrBuild, run)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBuild, domain.ErrEmbeddingUnavailable)
	}

	logger.Section("Index Build")
	logger.Info("Building %s with %d chunks (model %s)", run.DirName(), len(chunks), s.embedder.ModelName())

	writer, err := s.store.Create(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBuild, err)
	}

	fail := func(cause error) (driven.VectorIndex, error) {
		if abortErr := writer.Abort(); abortErr != nil {
			logger.Warn("Cleanup of %s failed: %v", run.DirName(), abortErr)
		}
		if rmErr := s.store.Remove(run); rmErr != nil {
			logger.Warn("Removing %s failed: %v", run.DirName(), rmErr)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrBuild, run.DirName(), cause)
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fail(fmt.Errorf("embedding chunks %d-%d: %w", start, end, err))
		}
		if err := writer.Add(ctx, batch, embeddings); err != nil {
			return fail(fmt.Errorf("storing chunks %d-%d: %w", start, end, err))
		}
		logger.Debug("Embedded %d/%d chunks", end, len(chunks))
	}

	index, err := writer.Commit(ctx)
	if err != nil {
		return fail(fmt.Errorf("committing: %w", err))
	}

	logger.Info("Index %s ready", run.DirName())
	return index, nil
}

// Load opens an existing index without embedding anything.
func (s *IndexService) Load(ctx context.Context, run domain.IndexRun) (driven.VectorIndex, error) {
	index, err := s.store.Open(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", run.DirName(), err)
	}
	logger.Debug("Loaded existing index %s", run.DirName())
	return index, nil
}

// Setup attaches run's index. A present index is reused unless
// ForceRecreate is set, in which case it is deleted and rebuilt.
// An incomplete leftover from a crashed build is always rebuilt.
// Concurrent calls for the same run are serialised, so a caller that
// waited reuses the index the first one built.
func (s *IndexService) Setup(
	ctx context.Context, run domain.IndexRun, opts driving.SetupOptions,
) (driven.VectorIndex, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}

	lock := s.runLock(run)
	lock.Lock()
	defer lock.Unlock()

	if opts.ForceRecreate && s.store.Exists(run) {
		logger.Info("Removing existing index %s", run.DirName())
		if err := s.store.Remove(run); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrBuild, err)
		}
	}

	if s.store.Exists(run) {
		index, err := s.Load(ctx, run)
		if err == nil {
			return index, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		logger.Warn("Index %s is incomplete, rebuilding", run.DirName())
		if err := s.store.Remove(run); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrBuild, err)
		}
	}

	chunks, err := s.Chunks(ctx, run)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, run, chunks)
}

func (s *IndexService) runLock(run domain.IndexRun) *sync.Mutex {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()

	lock, ok := s.runLocks[run]
	if !ok {
		lock = &sync.Mutex{}
		s.runLocks[run] = lock
	}
	return lock
}

// Chunks loads the corpus and splits it with run's parameters.
func (s *IndexService) Chunks(ctx context.Context, run domain.IndexRun) ([]domain.Chunk, error) {
	pipeline, err := s.pipelines.Build(run)
	if err != nil {
		return nil, err
	}

	docs, err := s.corpus.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	logger.Debug("Chunking %d documents for %s", len(docs), run)

	var chunks []domain.Chunk
	for i := range docs {
		docChunks, err := pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("chunking %s: %w", docs[i].Metadata.SourceFile, err)
		}
		chunks = append(chunks, docChunks...)
	}

	logger.Debug("Produced %d chunks", len(chunks))
	return chunks, nil
}

// Remove deletes run's index.
func (s *IndexService) Remove(run domain.IndexRun) error {
	return s.store.Remove(run)
}

// List returns every run with an index present.
func (s *IndexService) List() ([]domain.IndexRun, error) {
	return s.store.List()
}
