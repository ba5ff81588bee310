package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// PostProcessor is one stage of chunk production. The first stage (the
// chunker) receives nil and creates chunks from doc; later stages filter
// or rewrite the chunks they are given.
type PostProcessor interface {
	// Name identifies the stage in logs and in the registry.
	Name() string

	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns one document into its final chunks.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// PipelineBuilder creates the chunking pipeline for one index run.
type PipelineBuilder interface {
	// Build returns a pipeline that chunks with the run's size and overlap.
	// Returns domain.ErrInvalidParameter if the run cannot be chunked.
	Build(run domain.IndexRun) (PostProcessorPipeline, error)
}
