package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QuestionSource loads the evaluation question set.
type QuestionSource interface {
	// Questions returns the ordered question set.
	// A missing or empty set returns an error wrapping domain.ErrConfiguration.
	Questions(ctx context.Context) ([]domain.EvaluationQuestion, error)
}
