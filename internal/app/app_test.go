package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

const corpusJSON = `{
  "metadata": {"source_url": "https://pt.wikipedia.org/wiki/Clarice_Lispector", "title": "Clarice Lispector"},
  "content_sections": [
    {"section_title": "Biografia", "content": [
      {"type": "paragraph", "text": "Clarice Lispector nasceu em Chechelnyk, na Ucrânia, em 1920."},
      {"type": "paragraph", "text": "A família emigrou para o Brasil e viveu em Maceió e no Recife."}
    ]},
    {"section_title": "Lista de obras", "content": [
      {"type": "works_list", "category": "Romance", "items": [
        {"title": "Perto do Coração Selvagem", "year": 1943},
        {"title": "A Hora da Estrela", "year": 1977}
      ]}
    ]}
  ]
}`

const questionsJSON = `[
  {"question": "Onde nasceu Clarice Lispector?", "expected_text": "Chechelnyk"},
  {"question": "Qual o primeiro romance?", "expected_text": "Perto do Coração Selvagem"}
]`

func testSettings(t *testing.T, backend domain.IndexBackend) domain.Settings {
	t.Helper()
	dir := t.TempDir()

	docs := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "clarice.json"), []byte(corpusJSON), 0o600))

	questions := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(questions, []byte(questionsJSON), 0o600))

	s := domain.DefaultSettings()
	s.DocumentsPath = docs
	s.QuestionsFile = questions
	s.PromptDir = filepath.Join(dir, "prompts")
	s.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Model: "lexical-hash"}
	s.Index.Root = filepath.Join(dir, "indexes")
	s.Index.Backend = backend
	s.Index.ChunkSize = 400
	s.Index.ChunkOverlap = 50
	return s
}

func newApp(t *testing.T, backend domain.IndexBackend) *App {
	t.Helper()
	a, err := New(context.Background(), testSettings(t, backend))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() }) //nolint:errcheck
	return a
}

func TestNew_InvalidSettings(t *testing.T) {
	s := domain.DefaultSettings()
	_, err := New(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew_WarnsWithoutGenerator(t *testing.T) {
	a := newApp(t, domain.IndexBackendMemory)
	assert.NotEmpty(t, a.Warnings())
	assert.Equal(t, 400, a.Settings().Index.ChunkSize)
}

func TestEvaluate_EndToEnd(t *testing.T) {
	a := newApp(t, domain.IndexBackendSQLite)

	var events []domain.SweepEvent
	results, err := a.Evaluator(false, func(ev domain.SweepEvent) {
		events = append(events, ev)
	}).Evaluate(context.Background(), driving.SweepGrid{
		ChunkSizes:    []int{50, 400},
		ChunkOverlaps: []int{10, 100},
		TopK:          []int{1, 5},
	})
	require.NoError(t, err)

	// (50, 100) is skipped, the other three pairs score at two k values.
	assert.Len(t, results, 6)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Accuracy, results[i].Accuracy)
	}
	assert.Equal(t, domain.SweepPending, events[0].Phase)
	assert.Equal(t, domain.SweepDone, events[len(events)-1].Phase)

	runs, err := a.Indexer().List()
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.DirExists(t, filepath.Join(a.Settings().Index.Root, "db_size_400_overlap_10"))
}

func TestDebug_EndToEnd(t *testing.T) {
	a := newApp(t, domain.IndexBackendMemory)

	report, err := a.Debugger().Debug(context.Background(), domain.IndexRun{ChunkSize: 400, ChunkOverlap: 50}, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, report.Successes, report.Total-len(report.Failures()))
	assert.InDelta(t, domain.Accuracy(report.Successes, report.Total), report.Accuracy, 0.001)
}

func TestRetriever_EndToEnd(t *testing.T) {
	a := newApp(t, domain.IndexBackendMemory)

	r := a.Retriever(domain.IndexRun{ChunkSize: 400, ChunkOverlap: 50})
	defer r.Close() //nolint:errcheck

	chunks, err := r.Retrieve(context.Background(), "Chechelnyk", 3)
	require.NoError(t, err)
	assert.Empty(t, chunks, "no index is attached before EnsureReady")

	require.NoError(t, r.EnsureReady(context.Background()))
	chunks, err = r.Retrieve(context.Background(), "Onde nasceu Clarice em Chechelnyk?", 5)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.True(t, domain.ContextContains(chunks, "chechelnyk"))
}

func TestRefresh_RebuildsFromCurrentFiles(t *testing.T) {
	a := newApp(t, domain.IndexBackendSQLite)
	ctx := context.Background()
	run := domain.IndexRun{ChunkSize: 400, ChunkOverlap: 50}

	r := a.Retriever(run)
	require.NoError(t, r.EnsureReady(ctx))
	require.NoError(t, r.Close())

	extra := "Macabéa é a protagonista de A Hora da Estrela."
	require.NoError(t, os.WriteFile(filepath.Join(a.Settings().DocumentsPath, "macabea.txt"), []byte(extra), 0o600))

	require.NoError(t, a.Refresh(ctx))
	runs, err := a.Indexer().List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	r = a.Retriever(run)
	defer r.Close() //nolint:errcheck
	require.NoError(t, r.EnsureReady(ctx))

	chunks, err := r.Retrieve(ctx, "Quem é Macabéa?", 5)
	require.NoError(t, err)
	assert.True(t, domain.ContextContains(chunks, "macabéa"))
}

func TestWatchCorpus_ReportsChanges(t *testing.T) {
	a := newApp(t, domain.IndexBackendMemory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := a.WatchCorpus(ctx)
	require.NoError(t, err)

	path := filepath.Join(a.Settings().DocumentsPath, "novo.txt")
	require.NoError(t, os.WriteFile(path, []byte("Texto novo."), 0o600))

	select {
	case paths := <-changes:
		assert.Contains(t, paths, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range changes {
	}
}

func TestAnswers_SentinelWithoutGenerator(t *testing.T) {
	a := newApp(t, domain.IndexBackendMemory)

	answer, err := a.Answers().Ask(context.Background(), "Onde nasceu Clarice Lispector?")
	require.NoError(t, err)
	assert.True(t, answer.Failed)
	assert.Equal(t, domain.GenerationFailureAnswer, answer.Text)
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sercha-rag.toml")

	s := domain.DefaultSettings()
	s.Embedding.Model = "nomic-embed-text"
	s.Embedding.Provider = domain.AIProviderOllama
	require.NoError(t, SaveSettings(path, s))

	loaded, err := LoadSettings(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", loaded.Embedding.Model)
	assert.Equal(t, domain.AIProviderOllama, loaded.Embedding.Provider)
}

func TestNewConverter_LocalHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagina.html")
	html := `<html><head><title>Página</title></head><body><h1>Clarice</h1><p>Escritora.</p></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0o600))

	conv := NewConverter()
	doc, err := conv.Convert(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Sections)

	data, err := conv.Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content_sections"`)
	assert.Contains(t, string(data), "Escritora.")
}
