package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockProcessor returns predefined chunks, or passes its input through.
type mockProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
	calls  int
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func TestPipeline_AddAndNames(t *testing.T) {
	p := NewPipeline()
	assert.Zero(t, p.Len())

	p.Add(&mockProcessor{name: "chunker"})
	p.Add(&mockProcessor{name: "dedupe"})

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"chunker", "dedupe"}, p.Names())
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), &domain.Document{ID: "doc"})
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_Process_ChainsStages(t *testing.T) {
	created := []domain.Chunk{{ID: "chunk-1", Content: "Chechelnyk"}}
	p := NewPipeline(
		&mockProcessor{name: "creator", chunks: created},
		&mockProcessor{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "chunk-1", chunks[0].ID)
}

func TestPipeline_Process_StopsWhenEmpty(t *testing.T) {
	later := &mockProcessor{name: "later"}
	p := NewPipeline(&mockProcessor{name: "creator", chunks: []domain.Chunk{}}, later)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, later.calls)
}

func TestPipeline_Process_StageError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&mockProcessor{name: "failing", err: boom})

	doc := &domain.Document{Metadata: domain.DocumentMetadata{SourceFile: "clarice.json"}}
	_, err := p.Process(context.Background(), doc)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "clarice.json: stage failing: boom", err.Error())
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	stage := &mockProcessor{name: "creator"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(stage).Process(ctx, &domain.Document{ID: "doc"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stage.calls)
}

func TestBuilderPipeline_KeepsSourceMetadata(t *testing.T) {
	p := newTestPipeline(t, 100, 10)
	doc := &domain.Document{
		Metadata: domain.DocumentMetadata{SourceFile: "a.json", Title: "Clarice"},
		Sections: []domain.Section{{
			Kind: domain.SectionKindSection, Title: "Um",
			Content: []domain.ContentItem{{Kind: domain.ContentParagraph, Text: "primeiro"}},
		}},
	}

	chunks, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a.json", chunks[0].Metadata[domain.MetaSourceFile])
}

// newTestPipeline builds the default pipeline for a run.
func newTestPipeline(t *testing.T, size, overlap int) *Pipeline {
	t.Helper()
	p, err := NewBuilder(domain.ChunkStrategyWindow).Build(domain.IndexRun{ChunkSize: size, ChunkOverlap: overlap})
	require.NoError(t, err)
	return p.(*Pipeline)
}
