package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the simulator.
type KeyMap struct {
	// Widget lifecycle
	New     key.Binding
	HideTop key.Binding
	HideAll key.Binding

	// Simulation
	TogglePermission key.Binding
	CancelTouch      key.Binding
	CopyJSON         key.Binding
	CopyYAML         key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.HideTop, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.HideTop, k.HideAll},
		{k.TogglePermission, k.CancelTouch},
		{k.CopyJSON, k.CopyYAML},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		New: key.NewBinding(
			key.WithKeys("n", "enter"),
			key.WithHelp("n", "new widget"),
		),
		HideTop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "hide top"),
		),
		HideAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "hide all"),
		),
		TogglePermission: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle overlay permission"),
		),
		CancelTouch: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel touch"),
		),
		CopyJSON: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy widgets as JSON"),
		),
		CopyYAML: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "copy widgets as YAML"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
