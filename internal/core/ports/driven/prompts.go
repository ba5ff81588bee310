package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// Both templates expect two %s placeholders: the context, then the question.
const (
	// PromptAnswer answers a question strictly from the retrieved context.
	PromptAnswer = "answer"

	// PromptCounting counts the works listed in the retrieved context.
	PromptCounting = "counting"
)

// PromptPolicy composes the final prompt for a question.
// Selection between templates is a policy decision kept out of the core.
type PromptPolicy interface {
	// Compose returns the prompt for the question over the given context
	// and the template name it chose.
	Compose(question, context string) (prompt string, template string, err error)
}
