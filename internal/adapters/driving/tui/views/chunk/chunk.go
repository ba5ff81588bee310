// Package chunk provides the full-text chunk view for the TUI.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// View shows one retrieved chunk with its metadata.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	chunk        *domain.Chunk
	rank         int
	lines        []string
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new chunk view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		width:  80,
		height: 24,
	}
}

// SetChunk sets the chunk to display.
func (v *View) SetChunk(rank int, c domain.Chunk) {
	v.chunk = &c
	v.rank = rank
	v.scrollOffset = 0
	v.wrapContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chunk view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

// handleKeyMsg scrolls the text or returns to the results.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k, km := msg.String(), v.keymap
	switch {
	case keymap.Matches(k, km.Up):
		v.scrollTo(v.scrollOffset - 1)
	case keymap.Matches(k, km.Down):
		v.scrollTo(v.scrollOffset + 1)
	case keymap.Matches(k, km.PageUp):
		v.scrollTo(v.scrollOffset - v.visibleLines())
	case keymap.Matches(k, km.PageDown):
		v.scrollTo(v.scrollOffset + v.visibleLines())
	case keymap.Matches(k, km.Top):
		v.scrollTo(0)
	case keymap.Matches(k, km.Bottom):
		v.scrollTo(v.maxScrollOffset())
	case keymap.Matches(k, km.Back), k == "q":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewExplore}
		}
	}
	return v, nil
}

// scrollTo moves the first visible line to offset, clamped to the text.
func (v *View) scrollTo(offset int) {
	v.scrollOffset = max(0, min(offset, v.maxScrollOffset()))
}

// wrapContent splits the chunk text and metadata into display lines.
func (v *View) wrapContent() {
	v.lines = nil
	if v.chunk == nil {
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	for _, line := range strings.Split(v.chunk.Content, "\n") {
		runes := []rune(line)
		for len(runes) > contentWidth {
			v.lines = append(v.lines, string(runes[:contentWidth]))
			runes = runes[contentWidth:]
		}
		v.lines = append(v.lines, string(runes))
	}

	if len(v.chunk.Metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(v.chunk.Metadata))
	for k := range v.chunk.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v.lines = append(v.lines, "", "Metadata:")
	for _, k := range keys {
		v.lines = append(v.lines, fmt.Sprintf("  %s: %s", k, v.chunk.Metadata[k]))
	}
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, help, and padding
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	maxOffset := len(v.lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// View renders the chunk view.
func (v *View) View() string {
	var b strings.Builder

	title := "Chunk"
	if v.chunk != nil {
		title = fmt.Sprintf("Chunk %d: %s", v.rank, v.chunk.Location())
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No content)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.lines)),
			len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	bindings := v.keymap.ChunkHelp()
	hints := make([]string, len(bindings))
	for i, b := range bindings {
		hints[i] = fmt.Sprintf("[%s] %s", b.Help().Key, b.Help().Desc)
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrapContent()
}

// Chunk returns the displayed chunk.
func (v *View) Chunk() *domain.Chunk {
	return v.chunk
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}
