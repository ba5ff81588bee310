// Package sections flattens a Document's section tree into titled blocks.
package sections

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// headerSeparator joins section and subsection titles in a block header.
const headerSeparator = " > "

// Extract returns one TitledBlock per section and per subsection that has
// text. Every block owns an independent copy of its metadata.
func Extract(doc *domain.Document) []domain.TitledBlock {
	if doc == nil {
		return nil
	}

	base := domain.Metadata{
		domain.MetaSourceURL:  doc.Metadata.SourceURL,
		domain.MetaTitle:      doc.Metadata.Title,
		domain.MetaSourceFile: doc.Metadata.SourceFile,
	}

	var blocks []domain.TitledBlock
	for i := range doc.Sections {
		blocks = walk(blocks, &doc.Sections[i], 1, nil, base)
	}
	return blocks
}

// walk emits the block for s, then recurses into its subsections.
// A section without text still has its subsections walked.
func walk(blocks []domain.TitledBlock, s *domain.Section, depth int, titles []string,
	inherited domain.Metadata) []domain.TitledBlock {
	if depth > domain.MaxSectionDepth {
		return blocks
	}

	meta := inherited.Clone()
	if depth == 1 {
		meta[domain.MetaSection] = s.Title
	} else {
		meta[domain.MetaSubsection] = s.Title
	}

	// Full slice expression so sibling subsections never share a backing array.
	titles = append(titles[:len(titles):len(titles)], strings.TrimSpace(s.Title))

	if body := RenderContent(s.Content); body != "" {
		text := body
		if header := renderHeader(titles); header != "" {
			text = header + "\n\n" + body
		}
		blocks = append(blocks, domain.TitledBlock{Text: text, Metadata: meta.Clone()})
	}

	for i := range s.Subsections {
		blocks = walk(blocks, &s.Subsections[i], depth+1, titles, meta)
	}
	return blocks
}

func renderHeader(titles []string) string {
	parts := make([]string, 0, len(titles))
	for _, t := range titles {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, headerSeparator)
}

// RenderContent serialises content items into block body text.
// Paragraphs are separated by a blank line; works-lists render as a
// category line followed by one "- title (year)" line per item.
// The result is empty when the items carry no visible text.
func RenderContent(items []domain.ContentItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case domain.ContentParagraph:
			if text := strings.TrimSpace(item.Text); text != "" {
				parts = append(parts, text)
			}
		case domain.ContentWorksList:
			if text := renderWorksList(item); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func renderWorksList(item domain.ContentItem) string {
	var lines []string
	for _, w := range item.Items {
		if strings.TrimSpace(w.Title) == "" {
			continue
		}
		lines = append(lines, w.Line())
	}
	if len(lines) == 0 {
		return ""
	}
	if category := strings.TrimSpace(item.Category); category != "" {
		lines = append([]string{category}, lines...)
	}
	return strings.Join(lines, "\n")
}
