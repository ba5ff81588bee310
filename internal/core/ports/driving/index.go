package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// SetupOptions controls how an index run is attached.
type SetupOptions struct {
	// ForceRecreate deletes any existing artifact and rebuilds it.
	// This is destructive and cannot be undone.
	ForceRecreate bool
}

// IndexService builds, loads and removes per-run index artifacts.
type IndexService interface {
	// Build embeds chunks into a new artifact for the run.
	// Empty chunks return domain.ErrBuild. Failures leave nothing behind.
	Build(ctx context.Context, run domain.IndexRun, chunks []domain.Chunk) (driven.VectorIndex, error)

	// Load opens an existing artifact without embedding anything.
	Load(ctx context.Context, run domain.IndexRun) (driven.VectorIndex, error)

	// Setup loads the run if present, otherwise chunks the corpus and builds it.
	Setup(ctx context.Context, run domain.IndexRun, opts SetupOptions) (driven.VectorIndex, error)

	// Chunks runs the corpus through the chunking pipeline for the run.
	Chunks(ctx context.Context, run domain.IndexRun) ([]domain.Chunk, error)

	// Remove deletes the run's artifact.
	Remove(run domain.IndexRun) error

	// List returns every run with an artifact on disk.
	List() ([]domain.IndexRun, error)
}
