package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are hashed word counts so related texts score higher.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	texts      int
	embedErr   error
	// failAfter makes EmbedBatch fail once this many batches succeeded.
	failAfter int
}

const mockDims = 64

func (m *mockEmbeddingService) vector(text string) []float32 {
	vec := make([]float32, mockDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w)) //nolint:errcheck
		vec[h.Sum32()%mockDims]++
	}
	return vec
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failAfter > 0 && m.batchCalls >= m.failAfter {
		return nil, domain.ErrEmbeddingUnavailable
	}
	m.batchCalls++
	m.texts += len(texts)
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.vector(text)
	}
	return result, nil
}

func (m *mockEmbeddingService) calls() (batches, texts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls, m.texts
}

func (m *mockEmbeddingService) Dimensions() int {
	return mockDims
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockQuestionSource implements driven.QuestionSource for testing.
type mockQuestionSource struct {
	questions []domain.EvaluationQuestion
	err       error
}

func (m *mockQuestionSource) Questions(_ context.Context) ([]domain.EvaluationQuestion, error) {
	return m.questions, m.err
}

// mockCorpus implements driven.CorpusSource for testing.
type mockCorpus struct {
	mu    sync.Mutex
	docs  []domain.Document
	err   error
	loads int
}

func (m *mockCorpus) Documents(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockCorpus) set(docs ...domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = docs
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	chunks     []domain.Chunk
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
	if len(m.chunks) > k {
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

// --- Test helpers ---

func intPtr(v int) *int { return &v }

// lispectorDoc is a small corpus covering biography and a works list.
func lispectorDoc() domain.Document {
	return domain.Document{
		ID: "clarice",
		Metadata: domain.DocumentMetadata{
			SourceURL:  "https://pt.wikipedia.org/wiki/Clarice_Lispector",
			Title:      "Clarice Lispector",
			SourceFile: "clarice.json",
		},
		Sections: []domain.Section{
			{
				Kind:  domain.SectionKindSection,
				Title: "Biografia",
				Content: []domain.ContentItem{
					{Kind: domain.ContentParagraph, Text: "Clarice Lispector nasceu na Ucrânia em 1920 e cresceu no Recife."},
				},
			},
			{
				Kind:  domain.SectionKindSection,
				Title: "Lista de obras",
				Subsections: []domain.Section{{
					Kind:  domain.SectionKindSubsection,
					Title: "Romances",
					Content: []domain.ContentItem{{
						Kind:     domain.ContentWorksList,
						Category: "Romance",
						Items: []domain.WorkItem{
							{Title: "Perto do Coração Selvagem", Year: intPtr(1943)},
							{Title: "A Hora da Estrela", Year: intPtr(1977)},
						},
					}},
				}},
			},
		},
	}
}

// paragraphDoc is a one-section document with the given text.
func paragraphDoc(id, title, text string) domain.Document {
	return domain.Document{
		ID:       id,
		Metadata: domain.DocumentMetadata{Title: title},
		Sections: []domain.Section{{
			Kind:    domain.SectionKindSection,
			Title:   title,
			Content: []domain.ContentItem{{Kind: domain.ContentParagraph, Text: text}},
		}},
	}
}

// mockFetcher implements driven.Fetcher for testing.
type mockFetcher struct {
	raw  *domain.RawDocument
	err  error
	urls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (*domain.RawDocument, error) {
	m.urls = append(m.urls, url)
	if m.err != nil {
		return nil, m.err
	}
	return m.raw, nil
}

// mockRegistry implements driven.NormaliserRegistry for testing.
// It returns a one-section document titled after the raw URI.
type mockRegistry struct {
	err  error
	seen []*domain.RawDocument
}

func (m *mockRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	m.seen = append(m.seen, raw)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{
		Metadata: domain.DocumentMetadata{Title: raw.URI, SourceFile: raw.URI, SourceURL: "canonical"},
		Sections: []domain.Section{{
			Kind:    domain.SectionKindSection,
			Title:   "Corpo",
			Content: []domain.ContentItem{{Kind: domain.ContentParagraph, Text: string(raw.Content)}},
		}},
	}, nil
}

func (m *mockRegistry) Register(driven.Normaliser) {}

func (m *mockRegistry) SupportedMIMETypes() []string { return nil }

// mockEncoder implements driven.DocumentEncoder for testing.
type mockEncoder struct{}

func (mockEncoder) Encode(doc *domain.Document) ([]byte, error) {
	return []byte(doc.Metadata.Title), nil
}
