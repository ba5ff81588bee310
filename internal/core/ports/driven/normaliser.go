package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Normaliser parses one input format (JSON biography, Markdown, PDF,
// DOCX, plain text) into a Document with sections.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties when two normalisers accept a MIME type; the
	// higher wins. Format parsers use 50 and above, fallbacks below 10.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// CorpusSource provides the documents an index is built from, in a
// stable order so chunk IDs are reproducible.
type CorpusSource interface {
	Documents(ctx context.Context) ([]domain.Document, error)
}
