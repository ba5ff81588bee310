package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Converter implements the interface.
var _ driving.Converter = (*Converter)(nil)

// Converter fetches or reads a source and normalises it into a Document.
type Converter struct {
	fetcher    driven.Fetcher
	registry   driven.NormaliserRegistry
	encoder    driven.DocumentEncoder
	detectMIME func(path string) string
}

// NewConverter creates a converter. detectMIME maps local file paths to
// MIME types; the fetcher reports the type of remote pages itself.
func NewConverter(
	fetcher driven.Fetcher,
	registry driven.NormaliserRegistry,
	encoder driven.DocumentEncoder,
	detectMIME func(path string) string,
) *Converter {
	return &Converter{
		fetcher:    fetcher,
		registry:   registry,
		encoder:    encoder,
		detectMIME: detectMIME,
	}
}

// Convert reads source and normalises it. Pages fetched over HTTP record
// their URL as the document's source URL.
func (c *Converter) Convert(ctx context.Context, source string) (*domain.Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", domain.ErrInvalidInput)
	}

	logger.Section("Convert")

	remote := isURL(source)
	raw, err := c.read(ctx, source, remote)
	if err != nil {
		return nil, err
	}
	logger.Debug("Read %d bytes of %s from %s", len(raw.Content), raw.MIMEType, source)

	doc, err := c.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalising %s: %w", source, err)
	}
	if remote {
		doc.Metadata.SourceURL = source
		doc.Metadata.SourceFile = ""
	}

	logger.Info("Converted %q: %d sections", doc.Metadata.Title, len(doc.Sections))
	return doc, nil
}

// Encode renders doc in the corpus file format.
func (c *Converter) Encode(doc *domain.Document) ([]byte, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	return c.encoder.Encode(doc)
}

func (c *Converter) read(ctx context.Context, source string, remote bool) (*domain.RawDocument, error) {
	if remote {
		if c.fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher configured", domain.ErrUnsupportedType)
		}
		return c.fetcher.Fetch(ctx, source)
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	mimeType := ""
	if c.detectMIME != nil {
		mimeType = c.detectMIME(source)
	}
	return &domain.RawDocument{
		URI:      filepath.ToSlash(source),
		MIMEType: mimeType,
		Content:  content,
	}, nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
