package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Evaluator implements the interface.
var _ driving.Evaluator = (*Evaluator)(nil)

// Evaluator sweeps chunking and k parameters and scores retrieval accuracy.
//
// Each (size, overlap) pair is built once and then scored at every k.
// Index directories are left in place after the sweep; callers remove
// them through IndexService.Remove when they are no longer wanted.
type Evaluator struct {
	indexer   driving.IndexService
	embedder  driven.EmbeddingService
	questions driven.QuestionSource
	reuse     bool
	observer  func(domain.SweepEvent)
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithReuse keeps indexes already on disk instead of rebuilding every pair.
func WithReuse(reuse bool) EvaluatorOption {
	return func(e *Evaluator) {
		e.reuse = reuse
	}
}

// WithObserver receives every sweep transition.
func WithObserver(fn func(domain.SweepEvent)) EvaluatorOption {
	return func(e *Evaluator) {
		e.observer = fn
	}
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(
	indexer driving.IndexService,
	embedder driven.EmbeddingService,
	questions driven.QuestionSource,
	opts ...EvaluatorOption,
) *Evaluator {
	e := &Evaluator{
		indexer:   indexer,
		embedder:  embedder,
		questions: questions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the sweep and returns results ranked by accuracy.
// Only a missing question set, an empty grid or cancellation abort it;
// pairs that fail to build are skipped.
func (e *Evaluator) Evaluate(ctx context.Context, grid driving.SweepGrid) ([]domain.EvaluationResult, error) {
	if err := validateGrid(grid); err != nil {
		return nil, err
	}

	questions, err := e.questions.Questions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: question set is empty", domain.ErrConfiguration)
	}

	e.emit(domain.SweepEvent{Phase: domain.SweepPending})
	logger.Section("Evaluation Sweep")
	logger.Info("%d sizes x %d overlaps x %d k values, %d questions",
		len(grid.ChunkSizes), len(grid.ChunkOverlaps), len(grid.TopK), len(questions))

	maxK := slices.Max(grid.TopK)
	var results []domain.EvaluationResult

	for _, size := range grid.ChunkSizes {
		for _, overlap := range grid.ChunkOverlaps {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			run := domain.IndexRun{ChunkSize: size, ChunkOverlap: overlap}
			if err := run.Validate(); err != nil {
				logger.Debug("Skipping %s: %v", run, err)
				e.emit(domain.SweepEvent{Phase: domain.SweepSkipped, Run: run, Err: err})
				continue
			}

			runResults, err := e.evaluateRun(ctx, run, grid.TopK, maxK, questions)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn("Skipping %s: %v", run, err)
				e.emit(domain.SweepEvent{Phase: domain.SweepSkipped, Run: run, Err: err})
				continue
			}
			results = append(results, runResults...)
		}
	}

	domain.RankResults(results)
	e.emit(domain.SweepEvent{Phase: domain.SweepDone})
	return results, nil
}

// evaluateRun builds one pair and scores it at every k. Each question is
// retrieved once at maxK; smaller k values score prefixes of that list.
func (e *Evaluator) evaluateRun(
	ctx context.Context,
	run domain.IndexRun,
	ks []int,
	maxK int,
	questions []domain.EvaluationQuestion,
) ([]domain.EvaluationResult, error) {
	e.emit(domain.SweepEvent{Phase: domain.SweepBuilding, Run: run})

	retriever := NewRetriever(e.indexer, e.embedder, run, WithForceRecreate(!e.reuse))
	defer retriever.Close() //nolint:errcheck

	if err := retriever.EnsureReady(ctx); err != nil {
		return nil, err
	}

	retrieved := make([][]domain.Chunk, len(questions))
	for i, q := range questions {
		chunks, err := retriever.Retrieve(ctx, q.Question, maxK)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Warn("Question %d on %s failed: %v", i+1, run, err)
			continue
		}
		retrieved[i] = chunks
	}

	results := make([]domain.EvaluationResult, 0, len(ks))
	for _, k := range ks {
		passes := 0
		for i, q := range questions {
			if domain.ContextContains(prefix(retrieved[i], k), q.ExpectedText) {
				passes++
			}
		}

		result := domain.EvaluationResult{
			ChunkSize:    run.ChunkSize,
			ChunkOverlap: run.ChunkOverlap,
			K:            k,
			Accuracy:     domain.Accuracy(passes, len(questions)),
		}
		logger.Info("%s k=%d accuracy=%.2f%%", run, k, result.Accuracy)
		e.emit(domain.SweepEvent{Phase: domain.SweepScoring, Run: run, K: k, Accuracy: result.Accuracy})
		results = append(results, result)
	}
	return results, nil
}

func (e *Evaluator) emit(ev domain.SweepEvent) {
	if e.observer != nil {
		e.observer(ev)
	}
}

func validateGrid(grid driving.SweepGrid) error {
	if len(grid.ChunkSizes) == 0 || len(grid.ChunkOverlaps) == 0 || len(grid.TopK) == 0 {
		return fmt.Errorf("%w: sweep grid must not be empty", domain.ErrInvalidParameter)
	}
	for _, k := range grid.TopK {
		if k <= 0 {
			return fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
		}
	}
	return nil
}

func prefix(chunks []domain.Chunk, k int) []domain.Chunk {
	if k < len(chunks) {
		return chunks[:k]
	}
	return chunks
}
