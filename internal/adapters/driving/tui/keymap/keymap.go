// Package keymap holds the explorer's key bindings and the help text
// derived from them.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups the bindings by what they act on.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Query input.
	Retrieve key.Binding

	// Result list.
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	NewQuery key.Binding
	Ask      key.Binding

	// Chunk view scrolling.
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// Section is a titled group of bindings shown on the help screen.
type Section struct {
	Title    string
	Bindings []key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the explorer's bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
		Back: bind("esc", "back", "esc"),

		Retrieve: bind("enter", "retrieve", "enter"),

		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		Open:     bind("enter", "open", "enter"),
		NewQuery: bind("n", "new query", "n"),
		Ask:      bind("a", "ask", "a"),

		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+d"),
		Top:      bind("g", "top", "home", "g"),
		Bottom:   bind("G", "bottom", "end", "G"),
	}
}

// ShortHelp is shown in the status bar while typing a query.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retrieve, k.Back}
}

// ResultsHelp is shown in the status bar once chunks are listed.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Up, k.Open, k.Ask, k.Back}
}

// ChunkHelp is shown below a chunk's full text.
func (k *KeyMap) ChunkHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Back}
}

// FullHelp returns the bindings in columns for a help.Model.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Retrieve, k.NewQuery, k.Ask},
		{k.Back, k.Help, k.Quit},
	}
}

// Sections returns the help screen grouped by view.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{Title: "Query", Bindings: []key.Binding{k.Retrieve, k.Back}},
		{Title: "Results", Bindings: []key.Binding{
			k.Up, k.Down, k.Open,
			bind(k.Ask.Help().Key, "generate an answer"),
			k.NewQuery, k.Help, k.Quit,
		}},
		{Title: "Chunk", Bindings: k.ChunkHelp()},
	}
}

// Matches reports whether keyStr triggers binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
