package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever answers nearest-chunk queries against one index run.
// Call EnsureReady before Retrieve; until an index is attached every
// query returns no chunks.
type Retriever struct {
	indexer  driving.IndexService
	embedder driven.EmbeddingService
	run      domain.IndexRun
	setup    driving.SetupOptions

	mu    sync.Mutex
	index driven.VectorIndex
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithForceRecreate rebuilds the index on EnsureReady instead of reusing it.
func WithForceRecreate(force bool) RetrieverOption {
	return func(r *Retriever) {
		r.setup.ForceRecreate = force
	}
}

// WithIndex attaches an already-open index.
func WithIndex(index driven.VectorIndex) RetrieverOption {
	return func(r *Retriever) {
		r.index = index
	}
}

// NewRetriever creates a retriever for run. Nothing is built or loaded
// until EnsureReady.
func NewRetriever(
	indexer driving.IndexService,
	embedder driven.EmbeddingService,
	run domain.IndexRun,
	opts ...RetrieverOption,
) *Retriever {
	r := &Retriever{
		indexer:  indexer,
		embedder: embedder,
		run:      run,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureReady attaches the run's index, building it if needed.
func (r *Retriever) EnsureReady(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index != nil {
		return nil
	}

	index, err := r.indexer.Setup(ctx, r.run, r.setup)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrRetrievalUnavailable, r.run.DirName(), err)
	}
	r.index = index
	return nil
}

// Retrieve returns up to k chunks nearest to query. An unattached index,
// k <= 0, or a failed query embedding or search all yield no chunks and a
// nil error; only cancellation of ctx is returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	query = strings.TrimSpace(query)
	if k <= 0 || query == "" {
		return []domain.Chunk{}, nil
	}

	r.mu.Lock()
	index := r.index
	r.mu.Unlock()

	if index == nil {
		logger.Debug("No index attached for %s, returning no chunks", r.run.DirName())
		return []domain.Chunk{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return r.unavailable(ctx, fmt.Errorf("embedding query: %w", err))
	}

	hits, err := index.Search(ctx, vec, k)
	if err != nil {
		return r.unavailable(ctx, fmt.Errorf("searching: %w", err))
	}

	chunks := make([]domain.Chunk, len(hits))
	for i, hit := range hits {
		chunks[i] = hit.Chunk
	}
	logger.Debug("Retrieved %d chunks (k=%d) from %s", len(chunks), k, r.run.DirName())
	return chunks, nil
}

// unavailable logs a failed query and degrades it to no chunks.
func (r *Retriever) unavailable(ctx context.Context, err error) ([]domain.Chunk, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	logger.Warn("%v", fmt.Errorf("%w: %s: %w", domain.ErrRetrievalUnavailable, r.run.DirName(), err))
	return []domain.Chunk{}, nil
}

// Run returns the index configuration this retriever serves.
func (r *Retriever) Run() domain.IndexRun {
	return r.run
}

// Close releases the attached index.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index == nil {
		return nil
	}
	err := r.index.Close()
	r.index = nil
	return err
}
