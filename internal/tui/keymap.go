package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	SwitchPane key.Binding

	SelectState key.Binding
	ClearState  key.Binding
	AddSite     key.Binding
	RemoveSite  key.Binding
	ClearSites  key.Binding
	Reset       key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "states/sites"),
		),
		SelectState: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "drill into state"),
		),
		ClearState: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "clear state"),
		),
		AddSite: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "compare site"),
		),
		RemoveSite: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "drop last site"),
		),
		ClearSites: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear comparison"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SelectState, k.AddSite, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchPane},
		{k.SelectState, k.ClearState, k.Reset},
		{k.AddSite, k.RemoveSite, k.ClearSites},
		{k.Help, k.Quit},
	}
}
