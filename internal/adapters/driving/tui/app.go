package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/chunk"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/explore"
)

// App is the explorer's root tea.Model. It routes keys to the active view
// and switches views on ChunkSelected and ViewChanged messages.
type App struct {
	ports  *Ports
	styles *styles.Styles
	keymap *keymap.KeyMap

	explore *explore.View
	chunk   *chunk.View
	current messages.ViewType

	width, height int
	ready         bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the explorer for ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:   ports,
		styles:  s,
		keymap:  km,
		explore: explore.NewView(s, km, ports.Retriever, ports.Answers, ports.K),
		chunk:   chunk.NewView(s),
		current: messages.ViewExplore,
	}, nil
}

// WithContext sets the context used for retrieval and generation.
func (a *App) WithContext(ctx context.Context) *App {
	a.explore.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("sercha-rag"), a.explore.Init())
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		switch a.current {
		case messages.ViewExplore:
			a.explore, cmd = a.explore.Update(msg)
		case messages.ViewChunk:
			a.chunk, cmd = a.chunk.Update(msg)
		case messages.ViewHelp:
			k := msg.String()
			if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) || k == "q" {
				a.current = messages.ViewExplore
			}
		}
		return a, cmd

	case messages.ChunkSelected:
		a.chunk.SetChunk(msg.Rank, msg.Chunk)
		a.current = messages.ViewChunk
		return a, nil

	case messages.ViewChanged:
		a.current = msg.View
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Retrieval results, answers and errors belong to the explore view
	// whichever view is showing.
	a.explore, cmd = a.explore.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.current {
	case messages.ViewChunk:
		return a.chunk.View()
	case messages.ViewHelp:
		return a.helpView()
	default:
		return a.explore.View()
	}
}

// helpView lists every binding, grouped by the view it applies to.
func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")

	for _, section := range a.keymap.Sections() {
		b.WriteString("\n")
		b.WriteString(a.styles.Subtitle.Render(section.Title + ":"))
		b.WriteString("\n")
		for _, binding := range section.Bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the program on the alternate screen and blocks until it exits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.current
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions resizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.explore.SetDimensions(width, height)
	a.chunk.SetDimensions(width, height)
}
