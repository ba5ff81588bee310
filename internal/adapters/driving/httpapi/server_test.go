package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockRetriever struct {
	run      domain.IndexRun
	chunks   []domain.Chunk
	readyErr error
	closed   bool
}

func (m *mockRetriever) EnsureReady(_ context.Context) error { return m.readyErr }

func (m *mockRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.Chunk, error) {
	if m.readyErr != nil {
		return []domain.Chunk{}, nil
	}
	if k < len(m.chunks) {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

func (m *mockRetriever) Run() domain.IndexRun { return m.run }

func (m *mockRetriever) Close() error {
	m.closed = true
	return nil
}

type retrieverFactory struct {
	mu       sync.Mutex
	created  []*mockRetriever
	chunks   []domain.Chunk
	readyErr error
}

func (f *retrieverFactory) New(run domain.IndexRun) driving.Retriever {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &mockRetriever{run: run, chunks: f.chunks, readyErr: f.readyErr}
	f.created = append(f.created, r)
	return r
}

type mockAnswerService struct{}

func (mockAnswerService) Ask(_ context.Context, question string) (*driving.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidInput
	}
	return &driving.Answer{Question: question, Text: "Na Ucrânia.", Template: driven.PromptAnswer}, nil
}

type mockIndexService struct {
	runs    []domain.IndexRun
	removed []domain.IndexRun
}

func (m *mockIndexService) Build(context.Context, domain.IndexRun, []domain.Chunk) (driven.VectorIndex, error) {
	return nil, domain.ErrBuild
}

func (m *mockIndexService) Load(context.Context, domain.IndexRun) (driven.VectorIndex, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIndexService) Setup(context.Context, domain.IndexRun, driving.SetupOptions) (driven.VectorIndex, error) {
	return nil, domain.ErrBuild
}

func (m *mockIndexService) Chunks(context.Context, domain.IndexRun) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockIndexService) Remove(run domain.IndexRun) error {
	m.removed = append(m.removed, run)
	return nil
}

func (m *mockIndexService) List() ([]domain.IndexRun, error) { return m.runs, nil }

type mockDebugger struct{}

func (mockDebugger) Debug(_ context.Context, run domain.IndexRun, k int) (*domain.DebugReport, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return &domain.DebugReport{Run: run, K: k, Total: 2, Successes: 1, Accuracy: 50}, nil
}

// --- Helpers ---

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	s, err := NewServer(ports)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func defaultPorts(f *retrieverFactory) *Ports {
	return &Ports{
		NewRetriever: f.New,
		Answers:      mockAnswerService{},
		Indexes:      &mockIndexService{runs: []domain.IndexRun{{ChunkSize: 100, ChunkOverlap: 10}}},
		Debugger:     mockDebugger{},
		DefaultRun:   domain.IndexRun{ChunkSize: 1000, ChunkOverlap: 200},
		DefaultK:     3,
	}
}

// --- Tests ---

func TestNewServer_RequiresRetrievers(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingRetrievers)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, defaultPorts(&retrieverFactory{}))
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRetrieve(t *testing.T) {
	chunks := []domain.Chunk{{Content: "um"}, {Content: "dois"}, {Content: "três"}, {Content: "quatro"}}

	t.Run("default run and k", func(t *testing.T) {
		f := &retrieverFactory{chunks: chunks}
		s := newTestServer(t, defaultPorts(f))

		rec := do(t, s, http.MethodPost, "/api/retrieve", `{"query": "onde"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp retrieveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "db_size_1000_overlap_200", resp.Run)
		assert.Equal(t, 3, resp.K)
		assert.Len(t, resp.Chunks, 3)
	})

	t.Run("explicit run is cached", func(t *testing.T) {
		f := &retrieverFactory{chunks: chunks}
		s := newTestServer(t, defaultPorts(f))

		body := `{"query": "onde", "k": 2, "chunk_size": 250, "chunk_overlap": 150}`
		rec := do(t, s, http.MethodPost, "/api/retrieve", body)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = do(t, s, http.MethodPost, "/api/retrieve", body)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Len(t, f.created, 1)
		assert.Equal(t, domain.IndexRun{ChunkSize: 250, ChunkOverlap: 150}, f.created[0].run)
	})

	t.Run("invalid run", func(t *testing.T) {
		s := newTestServer(t, defaultPorts(&retrieverFactory{}))
		rec := do(t, s, http.MethodPost, "/api/retrieve", `{"query": "x", "chunk_size": 10, "chunk_overlap": 10}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing query", func(t *testing.T) {
		s := newTestServer(t, defaultPorts(&retrieverFactory{}))
		rec := do(t, s, http.MethodPost, "/api/retrieve", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		s := newTestServer(t, defaultPorts(&retrieverFactory{}))
		rec := do(t, s, http.MethodPost, "/api/retrieve", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unavailable index returns empty", func(t *testing.T) {
		f := &retrieverFactory{chunks: chunks, readyErr: domain.ErrRetrievalUnavailable}
		s := newTestServer(t, defaultPorts(f))

		rec := do(t, s, http.MethodPost, "/api/retrieve", `{"query": "onde"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Retrieval-Warning"))

		var resp retrieveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Chunks)
	})
}

func TestReset_ClosesCachedRetrievers(t *testing.T) {
	f := &retrieverFactory{chunks: []domain.Chunk{{Content: "um"}}}
	s := newTestServer(t, defaultPorts(f))

	rec := do(t, s, http.MethodPost, "/api/retrieve", `{"query": "onde"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.created, 1)

	require.NoError(t, s.Reset())
	assert.True(t, f.created[0].closed)

	rec = do(t, s, http.MethodPost, "/api/retrieve", `{"query": "onde"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.created, 2)
}

func TestAsk(t *testing.T) {
	s := newTestServer(t, defaultPorts(&retrieverFactory{}))

	rec := do(t, s, http.MethodPost, "/api/ask", `{"question": "Onde nasceu Clarice?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var answer driving.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "Na Ucrânia.", answer.Text)
	assert.Equal(t, "Onde nasceu Clarice?", answer.Question)

	rec = do(t, s, http.MethodPost, "/api/ask", `{"question": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_NotConfigured(t *testing.T) {
	ports := defaultPorts(&retrieverFactory{})
	ports.Answers = nil
	s := newTestServer(t, ports)

	rec := do(t, s, http.MethodPost, "/api/ask", `{"question": "x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDebug(t *testing.T) {
	s := newTestServer(t, defaultPorts(&retrieverFactory{}))

	rec := do(t, s, http.MethodPost, "/api/debug", `{"chunk_size": 250, "chunk_overlap": 150, "k": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.DebugReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 5, report.K)
	assert.InDelta(t, 50.0, report.Accuracy, 0.001)

	rec = do(t, s, http.MethodPost, "/api/debug", `{"chunk_size": 10, "chunk_overlap": 20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexes(t *testing.T) {
	f := &retrieverFactory{}
	ports := defaultPorts(f)
	indexes := ports.Indexes.(*mockIndexService)
	s := newTestServer(t, ports)

	rec := do(t, s, http.MethodGet, "/api/indexes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"indexes":["db_size_100_overlap_10"]}`, rec.Body.String())

	// Open a retriever for the run so deletion has something to close.
	do(t, s, http.MethodPost, "/api/retrieve", `{"query": "x", "chunk_size": 100, "chunk_overlap": 10}`)
	require.Len(t, f.created, 1)

	rec = do(t, s, http.MethodDelete, "/api/indexes/db_size_100_overlap_10", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []domain.IndexRun{{ChunkSize: 100, ChunkOverlap: 10}}, indexes.removed)
	assert.True(t, f.created[0].closed)

	rec = do(t, s, http.MethodDelete, "/api/indexes/nonsense", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidParameter))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrConfiguration))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(domain.ErrRateLimited))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrBuild))
}
