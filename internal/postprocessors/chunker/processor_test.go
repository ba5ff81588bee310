package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func paragraphDoc(sectionTexts ...string) *domain.Document {
	doc := &domain.Document{
		ID: "test-doc",
		Metadata: domain.DocumentMetadata{
			SourceURL:  "https://example.org/page",
			Title:      "Página",
			SourceFile: "page.json",
		},
	}
	for i, text := range sectionTexts {
		doc.Sections = append(doc.Sections, domain.Section{
			Kind:    domain.SectionKindSection,
			Title:   string(rune('A' + i)),
			Content: []domain.ContentItem{{Kind: domain.ContentParagraph, Text: text}},
		})
	}
	return doc
}

func mustNew(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := mustNew(t)
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := mustNew(t, WithChunkSize(500), WithOverlap(100))
		if p.chunkSize != 500 || p.overlap != 100 {
			t.Errorf("expected 500/100, got %d/%d", p.chunkSize, p.overlap)
		}
	})

	t.Run("overlap not below chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(150))
		if !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})

	t.Run("zero chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(0), WithOverlap(0))
		if !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := mustNew(t)
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_NoSections(t *testing.T) {
	p := mustNew(t)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "empty"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty document, got %d", len(chunks))
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(20))
	doc := paragraphDoc("This is a small piece of content.")

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].Content != "A\n\nThis is a small piece of content." {
		t.Errorf("unexpected content %q", chunks[0].Content)
	}
	if chunks[0].Position != 0 || chunks[0].BlockIndex != 0 {
		t.Errorf("expected block 0 position 0, got %d/%d", chunks[0].BlockIndex, chunks[0].Position)
	}
	if chunks[0].Metadata[domain.MetaSection] != "A" {
		t.Errorf("expected section metadata 'A', got %q", chunks[0].Metadata[domain.MetaSection])
	}
}

func TestProcessor_Process_LargeContent(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(20))
	doc := paragraphDoc(strings.Repeat("x", 250))

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	seenIDs := make(map[string]bool)
	for i, chunk := range chunks {
		if seenIDs[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		seenIDs[chunk.ID] = true

		if chunk.Position != i {
			t.Errorf("expected position %d, got %d", i, chunk.Position)
		}
		if n := utf8.RuneCountInString(chunk.Content); n > 100 {
			t.Errorf("chunk %d exceeds size: %d", i, n)
		}
	}
}

func TestProcessor_Process_NoOverlapAcrossBlocks(t *testing.T) {
	p := mustNew(t, WithChunkSize(10), WithOverlap(3))
	doc := paragraphDoc("aaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbb")

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range chunks {
		switch c.BlockIndex {
		case 0:
			if strings.Contains(c.Content, "b") {
				t.Errorf("block 0 chunk %q contains text from block 1", c.Content)
			}
		case 1:
			if strings.Contains(c.Content, "a") {
				t.Errorf("block 1 chunk %q contains text from block 0", c.Content)
			}
		}
	}
}

func TestProcessor_Process_MetadataCopiedPerChunk(t *testing.T) {
	p := mustNew(t, WithChunkSize(10), WithOverlap(2))
	doc := paragraphDoc(strings.Repeat("z", 40))

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	chunks[0].Metadata[domain.MetaTitle] = "mutated"
	if chunks[1].Metadata[domain.MetaTitle] != "Página" {
		t.Errorf("metadata is shared between chunks")
	}
	if chunks[1].Metadata[domain.MetaSourceURL] != "https://example.org/page" {
		t.Errorf("expected source_url to be inherited")
	}
}

func TestProcessor_Process_IgnoresInputChunks(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(0))

	existing := []domain.Chunk{{ID: "existing", Content: "should be ignored"}}
	chunks, err := p.Process(context.Background(), paragraphDoc("new content"), existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if c.ID == "existing" {
			t.Error("input chunks should be ignored")
		}
	}
}

func TestProcessor_Process_CustomSplitFunc(t *testing.T) {
	p := mustNew(t, WithChunkSize(50), WithOverlap(5), WithSplitFunc(SplitRecursive))

	chunks, err := p.Process(context.Background(), paragraphDoc(sampleText), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c.Content); n > 50 {
			t.Errorf("chunk exceeds size: %d", n)
		}
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p := mustNew(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, paragraphDoc("text"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
