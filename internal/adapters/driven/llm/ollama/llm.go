// Package ollama generates answers with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
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
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second

	chatPath = "/api/chat"
	tagsPath = "/api/tags"
)

// LLMConfig configures the service. Zero fields take the defaults above.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService sends each prompt as a single user turn to /api/chat.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason"`
	Error      string      `json:"error"`
}

// NewLLMService creates a service for cfg.
func NewLLMService(cfg LLMConfig) *LLMService {
	s := &LLMService{
		client:  &http.Client{Timeout: DefaultLLMTimeout},
		baseURL: DefaultBaseURL,
		model:   DefaultLLMModel,
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
	return s
}

func toChatOptions(opts driven.GenerateOptions) *chatOptions {
	if opts.MaxTokens <= 0 && opts.Temperature <= 0 && len(opts.StopWords) == 0 {
		return nil
	}
	return &chatOptions{
		NumPredict:  opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	}
}

// Generate returns the assistant reply to prompt. Every failure after the
// request is built wraps domain.ErrGenerationFailure.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Options:  toChatOptions(opts),
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ollama %s: %w", domain.ErrGenerationFailure, s.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: ollama %s: status %d: %s",
			domain.ErrGenerationFailure, s.model, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: ollama %s: decoding reply: %w", domain.ErrGenerationFailure, s.model, err)
	}

	switch text := strings.TrimSpace(out.Message.Content); {
	case out.Error != "":
		return "", fmt.Errorf("%w: ollama %s: %s", domain.ErrGenerationFailure, s.model, out.Error)
	case text == "":
		return "", fmt.Errorf("%w: ollama %s: empty reply (%s)", domain.ErrGenerationFailure, s.model, out.DoneReason)
	default:
		return text, nil
	}
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists the local models to confirm the server is up.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+tagsPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("building ping request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", s.baseURL, err)
	}
	resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s: status %d", s.baseURL, resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (s *LLMService) Close() error {
	return nil
}
