package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Converter turns a web page or local file into a corpus document.
type Converter interface {
	// Convert reads source, an http(s) URL or a file path, and normalises it.
	Convert(ctx context.Context, source string) (*domain.Document, error)

	// Encode renders doc in the corpus file format.
	Encode(doc *domain.Document) ([]byte, error)
}
