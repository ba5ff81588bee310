// Package jsondoc reads and writes documents in the content_sections JSON
// format produced by the HTML converter.
package jsondoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the media type of content_sections files.
const MIMEType = "application/json"

// Normaliser handles content_sections JSON documents.
type Normaliser struct{}

// New creates a new content_sections normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 80
}

// file is the on-disk layout.
type file struct {
	Metadata        fileMetadata  `json:"metadata"`
	ContentSections []fileSection `json:"content_sections"`
}

type fileMetadata struct {
	SourceURL string            `json:"source_url"`
	Title     string            `json:"title"`
	Infobox   map[string]string `json:"infobox,omitempty"`
}

// fileSection is either a section (section_title) or a subsection
// (subsection_title). Subsections of subsections are rejected.
type fileSection struct {
	SectionTitle    string        `json:"section_title,omitempty"`
	SubsectionTitle string        `json:"subsection_title,omitempty"`
	Content         []fileContent `json:"content"`
	Subsections     []fileSection `json:"subsections,omitempty"`
}

type fileContent struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	Category string     `json:"category,omitempty"`
	Items    []fileWork `json:"items,omitempty"`
}

type fileWork struct {
	Title string   `json:"title"`
	Year  workYear `json:"year"`
}

// workYear accepts a number, a numeric string or null.
type workYear struct {
	value *int
}

func (y *workYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		y.value = nil
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var s string
	switch v := raw.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		s = strings.TrimSpace(v)
	default:
		return fmt.Errorf("year must be a number, string or null, got %s", data)
	}
	if s == "" {
		y.value = nil
		return nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("year %q is not an integer", s)
	}
	y.value = &year
	return nil
}

func (y workYear) MarshalJSON() ([]byte, error) {
	if y.value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*y.value)), nil
}

// Normalise parses a content_sections document. JSON that is not an
// object with content_sections is reported as domain.ErrUnsupportedType
// so directory walks can skip unrelated files.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw.Content, &keys); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object: %w", domain.ErrUnsupportedType, raw.URI, err)
	}
	if _, ok := keys["content_sections"]; !ok {
		return nil, fmt.Errorf("%w: %s has no content_sections", domain.ErrUnsupportedType, raw.URI)
	}

	var f file
	if err := json.Unmarshal(raw.Content, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	sections := make([]domain.Section, 0, len(f.ContentSections))
	for i := range f.ContentSections {
		s, err := convertSection(&f.ContentSections[i], 1)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: section %d: %w", domain.ErrInvalidInput, raw.URI, i+1, err)
		}
		sections = append(sections, s)
	}

	title := f.Metadata.Title
	if title == "" {
		title = normalisers.TitleFromURI(raw.URI)
	}
	doc := normalisers.NewDocument(raw, title, sections)
	doc.Metadata.SourceURL = f.Metadata.SourceURL
	doc.Metadata.Infobox = f.Metadata.Infobox
	return doc, nil
}

func convertSection(fs *fileSection, depth int) (domain.Section, error) {
	if depth > domain.MaxSectionDepth {
		return domain.Section{}, fmt.Errorf("nesting deeper than %d levels", domain.MaxSectionDepth)
	}

	s := domain.Section{Kind: domain.SectionKindSection, Title: fs.SectionTitle}
	if depth > 1 {
		s.Kind = domain.SectionKindSubsection
		s.Title = fs.SubsectionTitle
	}

	for i, c := range fs.Content {
		item, err := convertContent(c)
		if err != nil {
			return domain.Section{}, fmt.Errorf("content %d: %w", i+1, err)
		}
		s.Content = append(s.Content, item)
	}

	for i := range fs.Subsections {
		sub, err := convertSection(&fs.Subsections[i], depth+1)
		if err != nil {
			return domain.Section{}, fmt.Errorf("subsection %d: %w", i+1, err)
		}
		s.Subsections = append(s.Subsections, sub)
	}
	return s, nil
}

func convertContent(c fileContent) (domain.ContentItem, error) {
	kind := domain.ContentKind(c.Type)
	switch kind {
	case domain.ContentParagraph:
		return domain.ContentItem{Kind: kind, Text: c.Text}, nil
	case domain.ContentWorksList:
		items := make([]domain.WorkItem, len(c.Items))
		for i, w := range c.Items {
			items[i] = domain.WorkItem{Title: w.Title, Year: w.Year.value}
		}
		return domain.ContentItem{Kind: kind, Category: c.Category, Items: items}, nil
	default:
		return domain.ContentItem{}, fmt.Errorf("unknown content type %q", c.Type)
	}
}

// Ensure Encoder implements the interface.
var _ driven.DocumentEncoder = Encoder{}

// Encoder writes documents in the content_sections format.
type Encoder struct{}

// Encode renders doc in the content_sections format.
func (Encoder) Encode(doc *domain.Document) ([]byte, error) {
	return Encode(doc)
}

// Encode renders doc in the content_sections format.
func Encode(doc *domain.Document) ([]byte, error) {
	f := file{
		Metadata: fileMetadata{
			SourceURL: doc.Metadata.SourceURL,
			Title:     doc.Metadata.Title,
			Infobox:   doc.Metadata.Infobox,
		},
		ContentSections: make([]fileSection, 0, len(doc.Sections)),
	}
	for i := range doc.Sections {
		f.ContentSections = append(f.ContentSections, encodeSection(&doc.Sections[i], 1))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeSection(s *domain.Section, depth int) fileSection {
	fs := fileSection{Content: make([]fileContent, 0, len(s.Content))}
	if depth == 1 {
		fs.SectionTitle = s.Title
	} else {
		fs.SubsectionTitle = s.Title
	}

	for _, c := range s.Content {
		fc := fileContent{Type: string(c.Kind), Text: c.Text, Category: c.Category}
		for _, w := range c.Items {
			fc.Items = append(fc.Items, fileWork{Title: w.Title, Year: workYear{value: w.Year}})
		}
		fs.Content = append(fs.Content, fc)
	}
	if depth < domain.MaxSectionDepth {
		for i := range s.Subsections {
			fs.Subsections = append(fs.Subsections, encodeSection(&s.Subsections[i], depth+1))
		}
	}
	return fs
}
