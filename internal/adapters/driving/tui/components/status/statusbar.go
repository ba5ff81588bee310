// Package status renders the explorer's one-line status bar.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// State is what the explorer is doing.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateAnswering  State = "answering"
	StateError      State = "error"
	StateHelp       State = "help"
	StateResults    State = "results"
)

// Bar shows the index run and state on the left and key hints on the
// right. It is passive: the explore view drives it through setters.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	state      State
	message    string
	chunkCount int
	elapsed    time.Duration
	run        string
	width      int
}

// NewBar creates a bar; nil arguments take the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Init implements the component contract.
func (s *Bar) Init() tea.Cmd { return nil }

// Update ignores all messages.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) { return s, nil }

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left, right := s.status(), s.hints()
	gap := max(1, s.width-lipgloss.Width(left)-lipgloss.Width(right))
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) status() string {
	var label string
	if s.run != "" {
		label = s.styles.Subtitle.Render(s.run) + " "
	}
	return label + s.describe()
}

func (s *Bar) describe() string {
	switch s.state {
	case StateRetrieving:
		return s.styles.Muted.Render("Retrieving...")
	case StateAnswering:
		return s.styles.Muted.Render("Generating answer...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	}

	switch {
	case s.message != "":
		return s.styles.Warning.Render(s.message)
	case s.chunkCount > 0 && s.elapsed > 0:
		return s.styles.Normal.Render(fmt.Sprintf("%d chunks in %s", s.chunkCount, s.elapsed.Round(time.Millisecond)))
	case s.chunkCount > 0:
		return s.styles.Normal.Render(fmt.Sprintf("%d chunks", s.chunkCount))
	default:
		return s.styles.Muted.Render("Ready")
	}
}

func (s *Bar) hints() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateResults && s.chunkCount > 0 {
		bindings = s.keymap.ResultsHelp()
	}
	return s.styles.Muted.Render(joinHints(bindings))
}

func joinHints(bindings []key.Binding) string {
	hints := make([]string, len(bindings))
	for i, b := range bindings {
		hints[i] = b.Help().Key + ": " + b.Help().Desc
	}
	return strings.Join(hints, " | ")
}

func (s *Bar) SetState(state State)       { s.state = state }
func (s *Bar) State() State               { return s.state }
func (s *Bar) SetMessage(message string)  { s.message = message }
func (s *Bar) Message() string            { return s.message }
func (s *Bar) SetChunkCount(count int)    { s.chunkCount = count }
func (s *Bar) ChunkCount() int            { return s.chunkCount }
func (s *Bar) SetElapsed(d time.Duration) { s.elapsed = d }
func (s *Bar) SetRun(run string)          { s.run = run }
func (s *Bar) SetWidth(width int)         { s.width = width }
func (s *Bar) Width() int                 { return s.width }

// Clear returns the bar to the ready state, keeping the run label.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.chunkCount = 0
	s.elapsed = 0
}
