// Package pdf normalises PDF files into one section per page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxTitleLength bounds the first line accepted as a title.
const maxTitleLength = 200

// PageExtractor returns the plain text of every page.
type PageExtractor func(content []byte) ([]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	extract PageExtractor
}

// New creates a PDF normaliser backed by ledongthuc/pdf.
func New() *Normaliser {
	return &Normaliser{extract: ExtractPages}
}

// NewWithExtractor creates a normaliser with a custom page extractor.
func NewWithExtractor(extract PageExtractor) *Normaliser {
	return &Normaliser{extract: extract}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts page text. Each non-empty page becomes a section
// titled "Página N" holding its paragraphs.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pages, err := n.extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	outline := normalisers.NewOutline()
	var first string
	for i, page := range pages {
		paragraphs := normalisers.SplitParagraphs(page)
		if len(paragraphs) == 0 {
			continue
		}
		if first == "" {
			first = page
		}
		outline.Section(fmt.Sprintf("Página %d", i+1))
		for _, p := range paragraphs {
			outline.Paragraph(normalisers.CollapseSpace(p))
		}
	}

	return normalisers.NewDocument(raw, extractTitle(first, raw.URI), outline.Sections()), nil
}

// ExtractPages reads every page with ledongthuc/pdf. The library panics
// on some malformed files; those panics become errors.
func ExtractPages(content []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractTitle uses the first reasonably short line, else the file name.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxTitleLength {
			continue
		}
		if strings.Trim(line, "\x00") == "" {
			continue
		}
		return line
	}
	return normalisers.TitleFromURI(uri)
}
