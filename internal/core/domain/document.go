package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Metadata keys carried from a Document down to every Chunk.
const (
	MetaSourceURL  = "source_url"
	MetaTitle      = "title"
	MetaSourceFile = "source_file"
	MetaSection    = "section"
	MetaSubsection = "subsection"
)

// Metadata is the flat key-value set attached to blocks and chunks.
type Metadata map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	dst := make(Metadata, len(m)+2)
	for k, v := range m {
		dst[k] = v
	}
	return dst
}

// DocumentMetadata holds the global fields of an ingested source.
type DocumentMetadata struct {
	// SourceURL is where the content was originally published.
	SourceURL string `json:"source_url"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// SourceFile is the path of the file the document was loaded from.
	SourceFile string `json:"source_file,omitempty"`

	// Infobox holds optional key-value facts scraped alongside the body.
	Infobox map[string]string `json:"infobox,omitempty"`
}

// Document is a single ingested source unit.
// It is created once per input file and never modified afterwards.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Metadata holds the document-wide fields.
	Metadata DocumentMetadata

	// Sections is the ordered top-level structure.
	Sections []Section

	// LoadedAt is when the document was read from disk.
	LoadedAt time.Time
}

// SectionKind tags a Section as top-level or nested.
type SectionKind int

const (
	// SectionKindSection is a top-level section (depth 1).
	SectionKindSection SectionKind = iota + 1

	// SectionKindSubsection is nested under a section (depth 2).
	SectionKindSubsection
)

// MaxSectionDepth is the deepest allowed nesting level.
const MaxSectionDepth = 2

// String returns the string representation.
func (k SectionKind) String() string {
	switch k {
	case SectionKindSection:
		return "section"
	case SectionKindSubsection:
		return "subsection"
	default:
		return "unknown"
	}
}

// Section is a titled run of content items with optional nested sections.
// Only SectionKindSection values may carry Subsections.
type Section struct {
	Kind        SectionKind
	Title       string
	Content     []ContentItem
	Subsections []Section
}

// ContentKind tags a ContentItem.
type ContentKind string

const (
	// ContentParagraph is free text.
	ContentParagraph ContentKind = "paragraph"

	// ContentWorksList is a categorised list of works.
	ContentWorksList ContentKind = "works_list"
)

// IsValid returns true if the content kind is recognised.
func (k ContentKind) IsValid() bool {
	return k == ContentParagraph || k == ContentWorksList
}

// ContentItem is either a paragraph (Text) or a works-list (Category, Items).
type ContentItem struct {
	Kind     ContentKind
	Text     string
	Category string
	Items    []WorkItem
}

// WorkItem is one entry of a works-list.
type WorkItem struct {
	Title string `json:"title"`
	Year  *int   `json:"year"`
}

var workYearPattern = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)`)

// ParseWorkItem splits a "Title (1977)" line into title and year.
// Lines without a parenthesised four-digit year get a nil Year.
func ParseWorkItem(line string) WorkItem {
	line = strings.TrimSpace(line)
	m := workYearPattern.FindStringSubmatch(line)
	if m == nil {
		return WorkItem{Title: line}
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return WorkItem{Title: line}
	}
	return WorkItem{Title: strings.TrimSpace(m[1]), Year: &year}
}

// Line renders the item as a works-list line.
func (w WorkItem) Line() string {
	if w.Year != nil {
		return "- " + w.Title + " (" + strconv.Itoa(*w.Year) + ")"
	}
	return "- " + w.Title
}

// Depth returns the maximum nesting depth of the section tree.
func (s Section) Depth() int {
	depth := 1
	for _, sub := range s.Subsections {
		if d := sub.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// TitledBlock is the pre-chunking unit assembled from one Section or
// Subsection: a title header followed by the body text.
type TitledBlock struct {
	Text     string
	Metadata Metadata
}

// Chunk is a contiguous text window over one TitledBlock.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// BlockIndex is the ordinal of the source block within its document.
	BlockIndex int `json:"block_index"`

	// Position is the ordinal position within the block.
	Position int `json:"position"`

	// Content is the text content of this chunk.
	Content string `json:"content"`

	// Metadata is a private copy of the block's metadata.
	Metadata Metadata `json:"metadata"`
}

// Location describes where the chunk came from as
// "Title > Section > Subsection (source file)".
func (c Chunk) Location() string {
	var parts []string
	for _, key := range []string{MetaTitle, MetaSection, MetaSubsection} {
		if v := c.Metadata[key]; v != "" {
			parts = append(parts, v)
		}
	}
	loc := strings.Join(parts, " > ")
	if src := c.Metadata[MetaSourceFile]; src != "" {
		if loc == "" {
			return src
		}
		loc += " (" + src + ")"
	}
	if loc == "" {
		return "unknown"
	}
	return loc
}
