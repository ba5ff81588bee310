package normalisers

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var multiSpaces = regexp.MustCompile(`\s+`)

// NewDocument creates a Document for raw with a fresh ID.
func NewDocument(raw *domain.RawDocument, title string, sections []domain.Section) *domain.Document {
	return &domain.Document{
		ID: uuid.New().String(),
		Metadata: domain.DocumentMetadata{
			Title:      title,
			SourceFile: raw.URI,
		},
		Sections: sections,
		LoadedAt: time.Now(),
	}
}

// TitleFromURI derives a readable title from a file name.
func TitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return strings.TrimSpace(filename)
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(multiSpaces.ReplaceAllString(s, " "))
}

// SplitParagraphs splits text on blank lines, dropping empty paragraphs.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// Outline assembles a two-level section tree from a flat stream of
// headings and content. Content before the first heading lands in an
// untitled section.
type Outline struct {
	sections []domain.Section
	sub      int // index of the open subsection in the last section, or -1
}

// NewOutline creates an empty outline.
func NewOutline() *Outline {
	return &Outline{sub: -1}
}

// Section opens a new top-level section.
func (o *Outline) Section(title string) {
	o.sections = append(o.sections, domain.Section{
		Kind:  domain.SectionKindSection,
		Title: strings.TrimSpace(title),
	})
	o.sub = -1
}

// Subsection opens a subsection under the current section.
func (o *Outline) Subsection(title string) {
	parent := o.current()
	parent.Subsections = append(parent.Subsections, domain.Section{
		Kind:  domain.SectionKindSubsection,
		Title: strings.TrimSpace(title),
	})
	o.sub = len(parent.Subsections) - 1
}

// Paragraph appends text to the open section or subsection.
func (o *Outline) Paragraph(text string) {
	if text = strings.TrimSpace(text); text == "" {
		return
	}
	o.add(domain.ContentItem{Kind: domain.ContentParagraph, Text: text})
}

// WorksList appends a works-list to the open section or subsection.
func (o *Outline) WorksList(category string, items []domain.WorkItem) {
	if len(items) == 0 {
		return
	}
	o.add(domain.ContentItem{Kind: domain.ContentWorksList, Category: category, Items: items})
}

// SectionWorksList appends a works-list to the open top-level section
// even while a subsection is open.
func (o *Outline) SectionWorksList(category string, items []domain.WorkItem) {
	if len(items) == 0 {
		return
	}
	s := o.current()
	s.Content = append(s.Content, domain.ContentItem{Kind: domain.ContentWorksList, Category: category, Items: items})
}

// InSection reports whether a titled section is open.
func (o *Outline) InSection() bool {
	return len(o.sections) > 0
}

// SectionTitle returns the title of the open top-level section.
func (o *Outline) SectionTitle() string {
	if len(o.sections) == 0 {
		return ""
	}
	return o.sections[len(o.sections)-1].Title
}

// Sections returns the assembled tree.
func (o *Outline) Sections() []domain.Section {
	return o.sections
}

func (o *Outline) current() *domain.Section {
	if len(o.sections) == 0 {
		o.Section("")
	}
	return &o.sections[len(o.sections)-1]
}

func (o *Outline) add(item domain.ContentItem) {
	s := o.current()
	if o.sub >= 0 {
		s = &s.Subsections[o.sub]
	}
	s.Content = append(s.Content, item)
}
