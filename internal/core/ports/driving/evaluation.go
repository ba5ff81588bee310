package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SweepGrid is the parameter cross-product evaluated by a sweep.
type SweepGrid struct {
	ChunkSizes    []int
	ChunkOverlaps []int
	TopK          []int
}

// Evaluator scores retrieval accuracy across a parameter sweep.
//
// Every evaluated (size, overlap) pair leaves an index artifact on disk.
// Callers own their removal, e.g. through IndexService.Remove.
type Evaluator interface {
	// Evaluate runs the sweep and returns results ranked by accuracy.
	Evaluate(ctx context.Context, grid SweepGrid) ([]domain.EvaluationResult, error)
}

// FailureDebugger re-runs one configuration and records failing questions.
type FailureDebugger interface {
	// Debug force-rebuilds the run's index and scores every question at k.
	Debug(ctx context.Context, run domain.IndexRun, k int) (*domain.DebugReport, error)
}
