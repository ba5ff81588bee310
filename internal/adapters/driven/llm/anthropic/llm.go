// Package anthropic generates answers with the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
	modelsPath       = "/v1/models"
)

// ErrMissingAPIKey is returned by NewLLMService without a key.
var ErrMissingAPIKey = errors.New("anthropic: API key is required")

// Config configures the service. APIKey is required; other zero fields
// take the defaults above.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService sends each prompt as one user message.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	StopSeqs    []string  `json:"stop_sequences,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *apiError      `json:"error,omitempty"`
}

// text joins the text blocks of the reply.
func (r messagesResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// NewLLMService creates a service for cfg.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	s := &LLMService{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		apiKey:  cfg.APIKey,
		model:   DefaultModel,
	}
	if cfg.BaseURL != "" {
		s.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model != "" {
		s.model = cfg.Model
	}
	if cfg.Timeout > 0 {
		s.client.Timeout = cfg.Timeout
	}
	return s, nil
}

// Generate returns the reply to prompt. Refusals, empty replies, rate
// limits and API errors all wrap domain.ErrGenerationFailure.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	status, body, err := s.post(ctx, messagesRequest{
		Model:       s.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic %s: %w", domain.ErrGenerationFailure, s.model, err)
	}
	if status == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %w: anthropic %s", domain.ErrGenerationFailure, domain.ErrRateLimited, s.model)
	}

	var reply messagesResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("%w: anthropic %s: status %d: undecodable reply: %w",
			domain.ErrGenerationFailure, s.model, status, err)
	}

	switch {
	case reply.Error != nil:
		return "", fmt.Errorf("%w: anthropic %s: %s: %s",
			domain.ErrGenerationFailure, s.model, reply.Error.Type, reply.Error.Message)
	case status != http.StatusOK:
		return "", fmt.Errorf("%w: anthropic %s: status %d", domain.ErrGenerationFailure, s.model, status)
	case reply.StopReason == "refusal":
		return "", fmt.Errorf("%w: anthropic %s declined to answer", domain.ErrGenerationFailure, s.model)
	}

	text := reply.text()
	if text == "" {
		return "", fmt.Errorf("%w: anthropic %s: no text (stop reason %q)",
			domain.ErrGenerationFailure, s.model, reply.StopReason)
	}
	return text, nil
}

func (s *LLMService) post(ctx context.Context, payload messagesRequest) (int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+messagesPath, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading reply: %w", err)
	}
	return resp.StatusCode, body, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the key by listing models, which runs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+modelsPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("building ping request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic unreachable: %w", err)
	}
	resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anthropic: models endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) authorize(req *http.Request) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}
