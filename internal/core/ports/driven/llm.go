package driven

import "context"

// LLMService answers a composed prompt. It is optional: without one the
// answer service returns domain.GenerationFailureAnswer for every
// question.
//
// Backends: openai, anthropic, gemini, ollama.
type LLMService interface {
	// Generate returns the completion for prompt. Transport errors,
	// empty completions and safety blocks all wrap
	// domain.ErrGenerationFailure.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName identifies the model in logs and answers.
	ModelName() string

	// Ping checks the backend at startup. A failure only warns.
	Ping(ctx context.Context) error

	// Close releases clients.
	Close() error
}

// GenerateOptions tunes one generation call. Zero values use the
// backend's defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
