package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure the answer types implement their interfaces.
var (
	_ driving.AnswerService = (*AnswerService)(nil)
	_ driven.PromptPolicy   = (*KeywordPromptPolicy)(nil)
)

// DefaultAnswerK is the number of chunks given to the generator.
const DefaultAnswerK = 5

// DefaultCountKeywords select the counting template.
var DefaultCountKeywords = []string{"quantos", "quantidade", "número de", "liste e conte"}

// KeywordPromptPolicy picks the counting template when the question
// contains one of its keywords and the answer template otherwise.
type KeywordPromptPolicy struct {
	prompts  driven.PromptStore
	keywords []string
}

// NewKeywordPromptPolicy creates a policy. Nil keywords use DefaultCountKeywords.
func NewKeywordPromptPolicy(prompts driven.PromptStore, keywords []string) *KeywordPromptPolicy {
	if keywords == nil {
		keywords = DefaultCountKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &KeywordPromptPolicy{prompts: prompts, keywords: lowered}
}

// Template returns the template name chosen for question.
func (p *KeywordPromptPolicy) Template(question string) string {
	q := strings.ToLower(question)
	for _, kw := range p.keywords {
		if kw != "" && strings.Contains(q, kw) {
			return driven.PromptCounting
		}
	}
	return driven.PromptAnswer
}

// Compose fills the chosen template with the context and question.
func (p *KeywordPromptPolicy) Compose(question, context string) (string, string, error) {
	name := p.Template(question)
	tmpl, err := p.prompts.Load(name)
	if err != nil {
		return "", name, fmt.Errorf("loading %s prompt: %w", name, err)
	}
	return fmt.Sprintf(tmpl, context, question), name, nil
}

// AnswerService answers questions from retrieved chunks.
type AnswerService struct {
	retriever driving.Retriever
	llm       driven.LLMService
	policy    driven.PromptPolicy
	k         int
	maxTokens int
}

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithAnswerK sets how many chunks are retrieved per question.
func WithAnswerK(k int) AnswerOption {
	return func(s *AnswerService) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int) AnswerOption {
	return func(s *AnswerService) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewAnswerService creates a new answer service.
// The llm parameter is optional; without it every answer is the failure sentinel.
func NewAnswerService(
	retriever driving.Retriever,
	llm driven.LLMService,
	policy driven.PromptPolicy,
	opts ...AnswerOption,
) *AnswerService {
	s := &AnswerService{
		retriever: retriever,
		llm:       llm,
		policy:    policy,
		k:         DefaultAnswerK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask retrieves context for question and generates an answer.
// Generation failures degrade to domain.GenerationFailureAnswer.
func (s *AnswerService) Ask(ctx context.Context, question string) (*driving.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Section("Answer")
	logger.Debug("Question: %q", question)

	if err := s.retriever.EnsureReady(ctx); err != nil {
		logger.Warn("Retrieval unavailable: %v", err)
	}

	chunks, err := s.retriever.Retrieve(ctx, question, s.k)
	if err != nil {
		return nil, err
	}

	prompt, tmpl, err := s.policy.Compose(question, formatContext(chunks))
	if err != nil {
		return nil, err
	}
	logger.Info("Using %s prompt with %d chunks", tmpl, len(chunks))
	logger.Debug("Prompt:\n%s", prompt)

	answer := &driving.Answer{
		Question: question,
		Template: tmpl,
		Sources:  sources(chunks),
	}

	text, err := s.generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		logger.Warn("Generation failed: %v", err)
		answer.Text = domain.GenerationFailureAnswer
		answer.Failed = true
		return answer, nil
	}

	answer.Text = text
	return answer, nil
}

func (s *AnswerService) generate(ctx context.Context, prompt string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailure, domain.ErrLLMUnavailable)
	}

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrGenerationFailure, s.llm.ModelName())
	}
	return text, nil
}

// formatContext joins chunk texts with blank lines.
func formatContext(chunks []domain.Chunk) string {
	parts := make([]string, len(chunks))
	for i := range chunks {
		parts[i] = chunks[i].Content
	}
	return strings.Join(parts, "\n\n")
}

// sources lists the distinct locations the chunks came from, in order.
func sources(chunks []domain.Chunk) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range chunks {
		loc := c.Metadata[domain.MetaTitle]
		if s := c.Metadata[domain.MetaSection]; s != "" {
			loc += " > " + s
		}
		if s := c.Metadata[domain.MetaSubsection]; s != "" {
			loc += " > " + s
		}
		loc = strings.TrimPrefix(loc, " > ")
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out
}
