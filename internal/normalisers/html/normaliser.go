package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// WorksSection is the section whose lists are parsed as works-lists.
const WorksSection = "Lista de obras"

// defaultCategory names a works-list with no preceding heading or paragraph.
const defaultCategory = "Sem Categoria"

// stopSections end the article body.
var stopSections = map[string]bool{
	"Ver também":        true,
	"Notas":             true,
	"Referências":       true,
	"Ligações externas": true,
	"Bibliografia":      true,
}

var (
	editMarker   = regexp.MustCompile(`\[\s*editar[^\]]*\]`)
	bracketNotes = regexp.MustCompile(`\[.*?\]`)
)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML page into a section tree.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	root, err := xhtml.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	content := findFirst(root, func(n *xhtml.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "mw-parser-output")
	})
	w := &walker{outline: normalisers.NewOutline(), wiki: content != nil}
	if content == nil {
		content = findFirst(root, func(n *xhtml.Node) bool { return n.DataAtom == atom.Body })
	}
	if content == nil {
		content = root
	}
	w.walk(content)

	doc := normalisers.NewDocument(raw, pageTitle(root, raw.URI), w.outline.Sections())
	doc.Metadata.Infobox = infobox(root)
	if canonical := findFirst(root, func(n *xhtml.Node) bool {
		return n.DataAtom == atom.Link && attr(n, "rel") == "canonical"
	}); canonical != nil {
		doc.Metadata.SourceURL = attr(canonical, "href")
	}
	return doc, nil
}

type walker struct {
	outline *normalisers.Outline
	wiki    bool
	stopped bool
}

func (w *walker) walk(n *xhtml.Node) {
	for c := n.FirstChild; c != nil && !w.stopped; c = c.NextSibling {
		if c.Type != xhtml.ElementNode {
			continue
		}
		w.element(c)
	}
}

func (w *walker) element(n *xhtml.Node) {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Nav:
		return
	case atom.Table:
		if hasClass(n, "infobox") {
			return
		}
	case atom.H1:
		if !w.wiki && !isPageHeading(n) {
			w.outline.Section(headingText(n))
		}
		return
	case atom.H2:
		title := headingText(n)
		if w.wiki && stopSections[title] {
			w.stopped = true
			return
		}
		w.outline.Section(title)
		return
	case atom.H3:
		if w.wiki && !w.outline.InSection() {
			return
		}
		w.outline.Subsection(headingText(n))
		return
	case atom.H4, atom.H5, atom.H6:
		if !w.wiki {
			w.outline.Subsection(headingText(n))
		}
		return
	case atom.P:
		if w.wiki && !w.outline.InSection() {
			return
		}
		w.outline.Paragraph(paragraphText(n))
		return
	case atom.Ul, atom.Ol:
		w.list(n)
		return
	}
	w.walk(n)
}

func (w *walker) list(n *xhtml.Node) {
	if w.wiki && !w.outline.InSection() {
		return
	}

	items := listItems(n)
	if w.outline.SectionTitle() == WorksSection {
		works := make([]domain.WorkItem, 0, len(items))
		for _, item := range items {
			works = append(works, domain.ParseWorkItem(item))
		}
		w.outline.SectionWorksList(listCategory(n), works)
		return
	}
	if w.wiki {
		return
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	w.outline.Paragraph(strings.Join(lines, "\n"))
}

// listItems returns the text of every li under n, nested ones included.
func listItems(n *xhtml.Node) []string {
	var items []string
	var visit func(*xhtml.Node)
	visit = func(node *xhtml.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xhtml.ElementNode && c.DataAtom == atom.Li {
				if t := itemText(c); t != "" {
					items = append(items, t)
				}
			}
			visit(c)
		}
	}
	visit(n)
	return items
}

// itemText is the li text without nested lists.
func itemText(li *xhtml.Node) string {
	var buf strings.Builder
	collectText(&buf, li, func(n *xhtml.Node) bool {
		return n.DataAtom == atom.Ul || n.DataAtom == atom.Ol
	})
	return normalisers.CollapseSpace(buf.String())
}

// listCategory is the text of the closest preceding h2, h3 or p sibling.
func listCategory(n *xhtml.Node) string {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type != xhtml.ElementNode {
			continue
		}
		switch {
		case s.DataAtom == atom.H2 || s.DataAtom == atom.H3:
			return headingText(s)
		case s.DataAtom == atom.P:
			if t := normalisers.CollapseSpace(textContent(s)); t != "" {
				return t
			}
			return defaultCategory
		case s.DataAtom == atom.Div && hasClass(s, "mw-heading"):
			if h := findFirst(s, func(n *xhtml.Node) bool {
				return n.DataAtom == atom.H2 || n.DataAtom == atom.H3
			}); h != nil {
				return headingText(h)
			}
		}
	}
	return defaultCategory
}

func headingText(n *xhtml.Node) string {
	t := textContent(n)
	t = strings.ReplaceAll(t, "[editar | editar código-fonte]", "")
	t = editMarker.ReplaceAllString(t, "")
	return normalisers.CollapseSpace(t)
}

// paragraphText drops bracketed notes such as reference markers.
func paragraphText(n *xhtml.Node) string {
	return normalisers.CollapseSpace(bracketNotes.ReplaceAllString(textContent(n), ""))
}

func pageTitle(root *xhtml.Node, uri string) string {
	if h := findFirst(root, isPageHeading); h != nil {
		if t := headingText(h); t != "" {
			return t
		}
	}
	if t := findFirst(root, func(n *xhtml.Node) bool { return n.DataAtom == atom.Title }); t != nil {
		if title := normalisers.CollapseSpace(textContent(t)); title != "" {
			return title
		}
	}
	return normalisers.TitleFromURI(uri)
}

func isPageHeading(n *xhtml.Node) bool {
	return n.DataAtom == atom.H1 && attr(n, "id") == "firstHeading"
}

// infobox collects th/td rows of the first infobox table.
func infobox(root *xhtml.Node) map[string]string {
	table := findFirst(root, func(n *xhtml.Node) bool {
		return n.DataAtom == atom.Table && hasClass(n, "infobox")
	})
	if table == nil {
		return nil
	}

	data := make(map[string]string)
	var rows func(*xhtml.Node)
	rows = func(n *xhtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xhtml.ElementNode && c.DataAtom == atom.Tr {
				th := findFirst(c, func(n *xhtml.Node) bool { return n.DataAtom == atom.Th })
				td := findFirst(c, func(n *xhtml.Node) bool { return n.DataAtom == atom.Td })
				if th == nil || td == nil {
					continue
				}
				key := normalisers.CollapseSpace(textContent(th))
				value := normalisers.CollapseSpace(bracketNotes.ReplaceAllString(spacedText(td), ""))
				if key != "" && value != "" {
					data[key] = value
				}
				continue
			}
			rows(c)
		}
	}
	rows(table)

	if len(data) == 0 {
		return nil
	}
	return data
}

// textContent concatenates text under n, skipping edit links and scripts.
func textContent(n *xhtml.Node) string {
	var buf strings.Builder
	collectText(&buf, n, nil)
	return buf.String()
}

// spacedText is textContent with a space between every text node.
func spacedText(n *xhtml.Node) string {
	var parts []string
	var visit func(*xhtml.Node)
	visit = func(node *xhtml.Node) {
		if skipText(node) {
			return
		}
		if node.Type == xhtml.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(parts, " ")
}

func collectText(buf *strings.Builder, n *xhtml.Node, skip func(*xhtml.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if skipText(c) || (skip != nil && c.Type == xhtml.ElementNode && skip(c)) {
			continue
		}
		if c.Type == xhtml.TextNode {
			buf.WriteString(c.Data)
			continue
		}
		if c.DataAtom == atom.Br {
			buf.WriteByte(' ')
		}
		collectText(buf, c, skip)
	}
}

func skipText(n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript:
		return true
	case atom.Span:
		return hasClass(n, "mw-editsection")
	}
	return false
}

func findFirst(n *xhtml.Node, match func(*xhtml.Node) bool) *xhtml.Node {
	if n.Type == xhtml.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *xhtml.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
