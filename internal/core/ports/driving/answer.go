package driving

import "context"

// Answer is a generated response and the evidence it was built from.
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"answer"`
	Template string   `json:"template"`
	Sources  []string `json:"sources,omitempty"`
	Failed   bool     `json:"failed"`
}

// AnswerService answers questions from retrieved context.
type AnswerService interface {
	// Ask retrieves context for the question and generates an answer.
	// Generation failures yield domain.GenerationFailureAnswer, not an error.
	Ask(ctx context.Context, question string) (*Answer, error)
}
