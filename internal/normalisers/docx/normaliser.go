// Package docx normalises Word documents using their heading styles.
package docx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	godocx "github.com/fumiama/go-docx"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word-processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// titleLevel marks a paragraph styled as the document title.
const titleLevel = -1

// Paragraph is one body paragraph. Level is the heading level,
// 0 for body text.
type Paragraph struct {
	Level int
	Text  string
}

// ParagraphExtractor returns the body paragraphs of a document.
type ParagraphExtractor func(content []byte) ([]Paragraph, error)

// Normaliser handles .docx documents.
type Normaliser struct {
	extract ParagraphExtractor
}

// New creates a docx normaliser backed by fumiama/go-docx.
func New() *Normaliser {
	return &Normaliser{extract: ExtractParagraphs}
}

// NewWithExtractor creates a normaliser with a custom extractor.
func NewWithExtractor(extract ParagraphExtractor) *Normaliser {
	return &Normaliser{extract: extract}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise maps Heading 1 to sections and deeper headings to
// subsections. A Title-styled paragraph names the document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	paragraphs, err := n.extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	title := ""
	outline := normalisers.NewOutline()
	for _, p := range paragraphs {
		text := normalisers.CollapseSpace(p.Text)
		if text == "" {
			continue
		}
		switch {
		case p.Level == titleLevel:
			if title == "" {
				title = text
			}
		case p.Level == 1:
			outline.Section(text)
		case p.Level > 1:
			outline.Subsection(text)
		default:
			outline.Paragraph(text)
		}
	}

	if title == "" {
		title = normalisers.TitleFromURI(raw.URI)
	}
	return normalisers.NewDocument(raw, title, outline.Sections()), nil
}

// ExtractParagraphs parses content with go-docx. Parser panics on
// malformed archives become errors.
func ExtractParagraphs(content []byte) (paragraphs []Paragraph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed docx: %v", r)
		}
	}()

	doc, err := godocx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*godocx.Paragraph)
		if !ok {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Level: headingLevel(para),
			Text:  paragraphText(para),
		})
	}
	return paragraphs, nil
}

// headingLevel reads the paragraph style: "Heading2" and "heading 2"
// are both level 2.
func headingLevel(para *godocx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return StyleLevel(para.Properties.Style.Val)
}

// StyleLevel converts a paragraph style name to a heading level.
func StyleLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return titleLevel
	}
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok || len(rest) != 1 || rest[0] < '1' || rest[0] > '6' {
		return 0
	}
	return int(rest[0] - '0')
}

func paragraphText(para *godocx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*godocx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*godocx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
