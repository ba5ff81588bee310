package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex is a queryable, read-only index over one IndexRun's chunks.
type VectorIndex interface {
	// Search finds the k nearest chunks to the query vector, nearest first.
	// A k larger than Count returns every chunk.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk with its metadata.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}

// IndexWriter receives the chunks of an index under construction.
// Nothing written is visible to Open until Commit succeeds.
type IndexWriter interface {
	// Add stores chunks with their embeddings. Both slices have equal length.
	Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error

	// Commit marks the index complete and returns it opened for search.
	Commit(ctx context.Context) (VectorIndex, error)

	// Abort discards everything written, including the run's storage.
	Abort() error
}

// IndexStore manages the per-run index artifacts.
// Each IndexRun maps to exactly one artifact addressed by IndexRun.DirName.
type IndexStore interface {
	// Exists reports whether any artifact is present for the run.
	Exists(run domain.IndexRun) bool

	// Create starts a fresh artifact. Fails if one already exists.
	Create(ctx context.Context, run domain.IndexRun) (IndexWriter, error)

	// Open opens a complete artifact.
	// Returns domain.ErrNotFound if it is missing or was never committed.
	Open(ctx context.Context, run domain.IndexRun) (VectorIndex, error)

	// Remove deletes the artifact. Missing artifacts are not an error.
	Remove(run domain.IndexRun) error

	// List returns every run with an artifact present.
	List() ([]domain.IndexRun, error)
}
