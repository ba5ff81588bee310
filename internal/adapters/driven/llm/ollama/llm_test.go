package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func chatServer(t *testing.T, handler func(chatRequest) (int, chatResponse)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chatPath, r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, resp := handler(req)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultLLMTimeout, svc.client.Timeout)

	svc = NewLLMService(LLMConfig{BaseURL: "http://gpu:11434/", Model: "qwen2.5", Timeout: time.Second})
	assert.Equal(t, "http://gpu:11434", svc.baseURL)
	assert.Equal(t, "qwen2.5", svc.ModelName())
	assert.Equal(t, time.Second, svc.client.Timeout)
}

func TestGenerate(t *testing.T) {
	server := chatServer(t, func(req chatRequest) (int, chatResponse) {
		assert.Equal(t, DefaultLLMModel, req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "Onde nasceu Clarice?", req.Messages[0].Content)
		require.NotNil(t, req.Options)
		assert.Equal(t, 128, req.Options.NumPredict)

		return http.StatusOK, chatResponse{
			Message: chatMessage{Role: "assistant", Content: " Nasceu na Ucrânia. "},
			Done:    true,
		}
	})

	text, err := NewLLMService(LLMConfig{BaseURL: server.URL}).
		Generate(context.Background(), "Onde nasceu Clarice?", driven.GenerateOptions{MaxTokens: 128})
	require.NoError(t, err)
	assert.Equal(t, "Nasceu na Ucrânia.", text)
}

func TestGenerate_NoOptionsWhenZero(t *testing.T) {
	server := chatServer(t, func(req chatRequest) (int, chatResponse) {
		assert.Nil(t, req.Options)
		return http.StatusOK, chatResponse{Message: chatMessage{Content: "ok"}, Done: true}
	})

	_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		resp    chatResponse
		wantMsg string
	}{
		{"empty reply", http.StatusOK, chatResponse{Done: true, DoneReason: "length"}, "empty reply (length)"},
		{"model error", http.StatusOK, chatResponse{Error: "model not found"}, "model not found"},
		{"server error", http.StatusInternalServerError, chatResponse{Error: "boom"}, "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, func(chatRequest) (int, chatResponse) { return tt.status, tt.resp })

			_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
			assert.ErrorIs(t, err, domain.ErrGenerationFailure)
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	_, err := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"}).Generate(context.Background(), "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tagsPath {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: server.URL}).Ping(context.Background()))
	assert.Error(t, NewLLMService(LLMConfig{BaseURL: server.URL + "/missing"}).Ping(context.Background()))
	assert.NoError(t, NewLLMService(LLMConfig{}).Close())
}
