// Package explore provides the query and retrieved-chunks view for the TUI.
package explore

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// View represents the explore view with input, chunk list, answer and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ChunkList
	statusbar *status.Bar

	retriever driving.Retriever
	answers   driving.AnswerService
	k         int
	ctx       context.Context

	width      int
	height     int
	ready      bool
	err        error
	query      string
	answer     *driving.Answer
	focusInput bool // true = input mode (typing), false = results mode (navigating)
}

// NewView creates a new explore view. Answers may be nil, in which case
// the ask binding reports that generation is unavailable.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retriever driving.Retriever,
	answers driving.AnswerService,
	k int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if k <= 0 {
		k = domain.DefaultTopK
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewChunkList(s),
		statusbar:  status.NewBar(s, km),
		retriever:  retriever,
		answers:    answers,
		k:          k,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	if retriever != nil {
		v.statusbar.SetRun(retriever.Run().DirName())
	}
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the explore view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RetrievalCompleted:
		v.handleRetrievalCompleted(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		return v.handleInputKey(msg)
	}

	switch {
	case msg.Type == tea.KeyEsc, keymap.Matches(msg.String(), v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()

	case msg.Type == tea.KeyEnter:
		chunk := v.list.SelectedChunk()
		if chunk == nil {
			return v, nil
		}
		selected := messages.ChunkSelected{Rank: v.list.Selected() + 1, Chunk: *chunk}
		return v, func() tea.Msg { return selected }

	case keymap.Matches(msg.String(), v.keymap.Ask):
		return v, v.ask()

	case keymap.Matches(msg.String(), v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }

	case msg.String() == "q":
		return v, func() tea.Msg { return messages.Quit{} }
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// handleInputKey processes keys while the query input has focus.
func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		if v.list.IsEmpty() {
			return v, func() tea.Msg { return messages.Quit{} }
		}
		// Return to the previous results.
		v.focusInput = false
		v.input.Blur()
		return v, nil

	case tea.KeyEnter:
		query := v.input.Value()
		if query == "" {
			return v, nil
		}
		v.query = query
		v.answer = nil
		v.err = nil
		v.statusbar.SetState(status.StateRetrieving)
		v.statusbar.SetMessage("")
		v.focusInput = false
		v.input.Blur()
		return v, v.retrieve(query)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// retrieve returns a command that fetches the chunks nearest to query.
func (v *View) retrieve(query string) tea.Cmd {
	retriever, ctx, k := v.retriever, v.ctx, v.k
	return func() tea.Msg {
		if retriever == nil {
			return messages.ErrorOccurred{Err: ErrNoRetriever}
		}
		start := time.Now()
		chunks, err := retriever.Retrieve(ctx, query, k)
		return messages.RetrievalCompleted{Query: query, Chunks: chunks, Elapsed: time.Since(start), Err: err}
	}
}

// ask returns a command that generates an answer for the last query.
func (v *View) ask() tea.Cmd {
	if v.query == "" {
		return nil
	}
	if v.answers == nil {
		v.statusbar.SetMessage("Answer generation is not configured")
		return nil
	}
	v.statusbar.SetState(status.StateAnswering)

	answers, ctx, query := v.answers, v.ctx, v.query
	return func() tea.Msg {
		answer, err := answers.Ask(ctx, query)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

// handleRetrievalCompleted processes retrieved chunks.
func (v *View) handleRetrievalCompleted(msg messages.RetrievalCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetChunks(msg.Chunks)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetChunkCount(len(msg.Chunks))
	v.statusbar.SetElapsed(msg.Elapsed)
	if len(msg.Chunks) == 0 {
		v.statusbar.SetMessage("No chunks retrieved; the index may be unavailable")
	}
}

// handleAnswerCompleted stores the generated answer.
func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.answer = msg.Answer
	v.statusbar.SetState(status.StateResults)
	if msg.Answer != nil && msg.Answer.Failed {
		v.statusbar.SetMessage("Generation failed")
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the explore view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Sercha RAG"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		body := v.styles.Subtitle.Render("Resposta") + "\n" + v.styles.Normal.Render(v.answer.Text)
		sections = append(sections, v.styles.Border.Padding(0, 1).Width(v.width-4).Render(body), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // Reserve space for header, input, status
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the last submitted query.
func (v *View) Query() string {
	return v.query
}

// Chunks returns the retrieved chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.list.Chunks()
}

// SelectedIndex returns the index of the selected chunk.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Answer returns the last generated answer, if any.
func (v *View) Answer() *driving.Answer {
	return v.answer
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset resets the view to initial input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetChunks(nil)
	v.query = ""
	v.answer = nil
	v.err = nil
	v.statusbar.Clear()
}
