package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func geminiServer(t *testing.T, status int, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "pergunta", req.Contents[0].Parts[0].Text)

		w.WriteHeader(status)
		w.Write([]byte(payload)) //nolint:errcheck
	}))
}

func generate(t *testing.T, url string) (string, error) {
	t.Helper()
	svc, err := NewLLMService(Config{APIKey: "secret", BaseURL: url})
	require.NoError(t, err)
	return svc.Generate(context.Background(), "pergunta", driven.GenerateOptions{MaxTokens: 150})
}

func TestGenerate(t *testing.T) {
	server := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Em Chechelnyk."}]},"finishReason":"STOP"}]}`)
	defer server.Close()

	text, err := generate(t, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Em Chechelnyk.", text)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"prompt blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		{"safety stop", http.StatusOK, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"empty text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":" "}]},"finishReason":"STOP"}]}`},
		{"api error", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`},
		{"rate limited", http.StatusTooManyRequests, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := geminiServer(t, tt.status, tt.payload)
			defer server.Close()

			_, err := generate(t, server.URL)
			assert.True(t, errors.Is(err, domain.ErrGenerationFailure), "got %v", err)
		})
	}
}

func TestNewLLMService_Defaults(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestRedact(t *testing.T) {
	err := redact(errors.New(`Post "https://x/?key=secret": dial tcp`), "secret")
	assert.NotContains(t, err.Error(), "secret")
}
