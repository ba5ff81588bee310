package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure FailureDebugger implements the interface.
var _ driving.FailureDebugger = (*FailureDebugger)(nil)

// FailureDebugger scores a single configuration from a fresh index and
// keeps the retrieved chunks of every question for inspection.
type FailureDebugger struct {
	indexer   driving.IndexService
	embedder  driven.EmbeddingService
	questions driven.QuestionSource
}

// NewFailureDebugger creates a new failure debugger.
func NewFailureDebugger(
	indexer driving.IndexService,
	embedder driven.EmbeddingService,
	questions driven.QuestionSource,
) *FailureDebugger {
	return &FailureDebugger{
		indexer:   indexer,
		embedder:  embedder,
		questions: questions,
	}
}

// Debug rebuilds run's index and scores every question at k.
func (d *FailureDebugger) Debug(ctx context.Context, run domain.IndexRun, k int) (*domain.DebugReport, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}

	questions, err := d.questions.Questions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: question set is empty", domain.ErrConfiguration)
	}

	logger.Section("Failure Debug")
	logger.Info("Rebuilding %s and scoring %d questions at k=%d", run.DirName(), len(questions), k)

	retriever := NewRetriever(d.indexer, d.embedder, run, WithForceRecreate(true))
	defer retriever.Close() //nolint:errcheck

	if err := retriever.EnsureReady(ctx); err != nil {
		return nil, err
	}

	report := &domain.DebugReport{
		Run:      run,
		K:        k,
		Total:    len(questions),
		Outcomes: make([]domain.QuestionOutcome, 0, len(questions)),
	}

	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunks, err := retriever.Retrieve(ctx, q.Question, k)
		if err != nil {
			logger.Warn("Question %d failed to retrieve: %v", i+1, err)
			chunks = nil
		}

		outcome := domain.QuestionOutcome{
			Index:        i,
			Question:     q.Question,
			ExpectedText: q.ExpectedText,
			Passed:       domain.ContextContains(chunks, q.ExpectedText),
		}
		if outcome.Passed {
			report.Successes++
		} else {
			outcome.Retrieved = chunks
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.Accuracy = domain.Accuracy(report.Successes, report.Total)
	logger.Info("%d/%d passed (%.2f%%)", report.Successes, report.Total, report.Accuracy)
	return report, nil
}
