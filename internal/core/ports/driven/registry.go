package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// NormaliserRegistry dispatches raw files to normalisers by MIME type.
// When several normalisers accept a type the highest Priority wins.
type NormaliserRegistry interface {
	// Normalise converts raw with the best normaliser for its MIME type.
	// Unsupported types return domain.ErrUnsupportedType so the corpus
	// walker can skip the file.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a normaliser.
	Register(normaliser Normaliser)

	// SupportedMIMETypes lists every type with at least one normaliser.
	SupportedMIMETypes() []string
}
