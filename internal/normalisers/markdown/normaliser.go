// Package markdown normalises Markdown files into section trees with goldmark.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
// The first level-one heading becomes the title, other level-one and
// level-two headings open sections and deeper headings open subsections.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document into a section tree.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	src := raw.Content
	root := n.md.Parser().Parse(text.NewReader(src))

	var title string
	outline := normalisers.NewOutline()

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok {
			heading := inlineText(h, src)
			switch {
			case h.Level == 1 && title == "":
				title = heading
			case h.Level <= 2:
				outline.Section(heading)
			default:
				outline.Subsection(heading)
			}
			continue
		}
		for _, p := range blockText(node, src) {
			outline.Paragraph(p)
		}
	}

	if title == "" {
		title = normalisers.TitleFromURI(raw.URI)
	}
	return normalisers.NewDocument(raw, title, outline.Sections()), nil
}

// blockText renders one block node as zero or more paragraphs.
func blockText(node ast.Node, src []byte) []string {
	switch b := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []string{inlineText(b, src)}
	case *ast.List:
		return []string{listText(b, src, 0)}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return []string{linesText(b, src)}
	case *ast.Blockquote:
		var out []string
		for c := b.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, blockText(c, src)...)
		}
		return out
	default:
		// Thematic breaks, raw HTML and link reference definitions carry no prose.
		return nil
	}
}

// listText renders a list as "- item" lines, indenting nested lists.
func listText(list *ast.List, src []byte, depth int) string {
	indent := strings.Repeat("  ", depth)
	var lines []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		var nested []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				nested = append(nested, listText(sub, src, depth+1))
				continue
			}
			parts = append(parts, blockText(c, src)...)
		}
		lines = append(lines, indent+"- "+strings.Join(parts, " "))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

// inlineText concatenates the text of node's inline descendants.
func inlineText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, node, src)
	return normalisers.CollapseSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, node ast.Node, src []byte) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(src))
		case *ast.Image, *ast.RawHTML:
			// skipped
		default:
			writeInline(buf, c, src)
		}
	}
}

func linesText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
