package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	chunks   []domain.Chunk
	err      error
	readyErr   error
	readyCalls int
	lastK      int
}

func (m *mockRetriever) EnsureReady(_ context.Context) error {
	m.readyCalls++
	return m.readyErr
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.Chunk, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if k < len(m.chunks) {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

func (m *mockRetriever) Run() domain.IndexRun {
	return domain.IndexRun{ChunkSize: 250, ChunkOverlap: 150}
}

func (m *mockRetriever) Close() error {
	return nil
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *driving.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, question string) (*driving.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	a := *m.answer
	a.Question = question
	return &a, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	runs   []domain.IndexRun
	counts map[domain.IndexRun]int
	err    error
}

func (m *mockIndexService) Build(_ context.Context, _ domain.IndexRun, _ []domain.Chunk) (driven.VectorIndex, error) {
	return nil, domain.ErrBuild
}

func (m *mockIndexService) Load(_ context.Context, run domain.IndexRun) (driven.VectorIndex, error) {
	count, ok := m.counts[run]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &mockIndex{count: count}, nil
}

func (m *mockIndexService) Setup(_ context.Context, _ domain.IndexRun, _ driving.SetupOptions) (driven.VectorIndex, error) {
	return nil, domain.ErrBuild
}

func (m *mockIndexService) Chunks(_ context.Context, _ domain.IndexRun) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockIndexService) Remove(_ domain.IndexRun) error {
	return nil
}

func (m *mockIndexService) List() ([]domain.IndexRun, error) {
	return m.runs, m.err
}

// mockIndex is a mock implementation of driven.VectorIndex.
type mockIndex struct {
	count int
}

func (m *mockIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	return m.count, nil
}

func (m *mockIndex) Close() error {
	return nil
}
