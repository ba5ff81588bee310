package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Fetcher downloads a remote page.
type Fetcher interface {
	// Fetch returns the body of url with its detected MIME type.
	Fetch(ctx context.Context, url string) (*domain.RawDocument, error)
}

// DocumentEncoder serialises a Document into the on-disk corpus format.
type DocumentEncoder interface {
	// Encode renders doc as bytes that a Normaliser can read back.
	Encode(doc *domain.Document) ([]byte, error)
}
