// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ChunkList displays retrieved chunks in rank order.
type ChunkList struct {
	chunks   []domain.Chunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewChunkList creates a new chunk list component.
func NewChunkList(s *styles.Styles) *ChunkList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ChunkList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the chunk list.
func (c *ChunkList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (c *ChunkList) Update(msg tea.Msg) (*ChunkList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			c.MoveUp()
		case "down", "j":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the chunk list.
func (c *ChunkList) View() string {
	if len(c.chunks) == 0 {
		return c.styles.Muted.Render("No chunks retrieved")
	}

	lines := make([]string, 0, len(c.chunks)+2)
	header := c.styles.Subtitle.Render(fmt.Sprintf("Chunks (%d)", len(c.chunks)))
	lines = append(lines, header, "")

	// Each chunk renders as a location line and a preview line.
	visibleCount := (c.height - 4) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if c.selected >= visibleCount {
		start = c.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(c.chunks) {
		end = len(c.chunks)
	}

	for i := start; i < end; i++ {
		lines = append(lines, c.renderChunk(i, &c.chunks[i]))
	}

	return strings.Join(lines, "\n")
}

// renderChunk formats a single chunk with its rank, location and preview.
func (c *ChunkList) renderChunk(index int, chunk *domain.Chunk) string {
	indicator := "  "
	if index == c.selected {
		indicator = "> "
	}

	location := truncate(chunk.Location(), c.width-10)
	title := fmt.Sprintf("%s%2d. %s", indicator, index+1, location)

	var titleLine string
	if index == c.selected {
		titleLine = c.styles.Selected.Render(title)
	} else {
		titleLine = c.styles.Normal.Render(title)
	}

	preview := truncate(strings.Join(strings.Fields(chunk.Content), " "), c.width-6)
	return titleLine + "\n" + c.styles.Muted.Render("    "+preview)
}

// truncate shortens s to at most n runes, ending with "...".
func truncate(s string, n int) string {
	if n < 20 {
		n = 20
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetChunks replaces the listed chunks and resets the selection.
func (c *ChunkList) SetChunks(chunks []domain.Chunk) {
	c.chunks = chunks
	c.selected = 0
}

// Chunks returns the listed chunks.
func (c *ChunkList) Chunks() []domain.Chunk {
	return c.chunks
}

// Selected returns the index of the selected chunk.
func (c *ChunkList) Selected() int {
	return c.selected
}

// SetSelected sets the selected index.
func (c *ChunkList) SetSelected(index int) {
	if index >= 0 && index < len(c.chunks) {
		c.selected = index
	}
}

// SelectedChunk returns the currently selected chunk, or nil if none.
func (c *ChunkList) SelectedChunk() *domain.Chunk {
	if len(c.chunks) == 0 || c.selected < 0 || c.selected >= len(c.chunks) {
		return nil
	}
	return &c.chunks[c.selected]
}

// MoveUp moves selection up.
func (c *ChunkList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *ChunkList) MoveDown() {
	if c.selected < len(c.chunks)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *ChunkList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the current width.
func (c *ChunkList) Width() int {
	return c.width
}

// Height returns the current height.
func (c *ChunkList) Height() int {
	return c.height
}

// Count returns the number of chunks.
func (c *ChunkList) Count() int {
	return len(c.chunks)
}

// IsEmpty returns whether the list is empty.
func (c *ChunkList) IsEmpty() bool {
	return len(c.chunks) == 0
}
