// Package themes holds colour schemes for the explore shell.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Selected    lipgloss.Style
	Highlighted lipgloss.Style
	Pane        lipgloss.Style
	ActivePane  lipgloss.Style
	Card        lipgloss.Style
	HighRisk    lipgloss.Style
	LowRisk     lipgloss.Style
	StatusError lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
}

func build(primary, fg, muted, border, success, danger, selectedFg lipgloss.Color) Theme {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	return Theme{
		Primary: primary,
		Muted:   muted,
		Border:  border,

		Title:       lipgloss.NewStyle().Bold(true).Foreground(primary),
		Subtitle:    lipgloss.NewStyle().Foreground(muted),
		Normal:      lipgloss.NewStyle().Foreground(fg),
		Bold:        lipgloss.NewStyle().Bold(true).Foreground(fg),
		Selected:    lipgloss.NewStyle().Background(primary).Foreground(selectedFg).Bold(true),
		Highlighted: lipgloss.NewStyle().Background(border).Foreground(fg),
		Pane:        pane,
		ActivePane:  pane.BorderForeground(primary),
		Card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1).
			MarginRight(1),
		HighRisk:    lipgloss.NewStyle().Foreground(danger).Bold(true),
		LowRisk:     lipgloss.NewStyle().Foreground(success),
		StatusError: lipgloss.NewStyle().Foreground(danger).Bold(true),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#2f80ed"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#fafafa"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#89b4fa"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#a6e3a1"),
	lipgloss.Color("#f38ba8"),
	lipgloss.Color("#1e1e2e"),
)

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	if name == "mocha" || name == "catppuccin" {
		return CatppuccinMocha
	}
	return Default
}
