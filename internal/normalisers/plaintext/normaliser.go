// Package plaintext is the fallback normaliser: any text file becomes one
// untitled section of blank-line separated paragraphs.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	MIMEType = "text/plain"
	priority = 5
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser reads UTF-8 text.
type Normaliser struct{}

// New returns the plain text normaliser.
func New() *Normaliser { return &Normaliser{} }

func (n *Normaliser) SupportedMIMETypes() []string { return []string{MIMEType} }

func (n *Normaliser) Priority() int { return priority }

// Normalise titles the document after its file name. A leading byte
// order mark is dropped; other invalid UTF-8 is rejected.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	text := bytes.TrimPrefix(raw.Content, utf8BOM)
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, raw.URI)
	}

	outline := normalisers.NewOutline()
	for _, p := range normalisers.SplitParagraphs(string(text)) {
		outline.Paragraph(p)
	}
	return normalisers.NewDocument(raw, normalisers.TitleFromURI(raw.URI), outline.Sections()), nil
}
