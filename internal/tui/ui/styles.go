// Package ui provides shared colors, styles and key bindings for the
// wslkit terminal UI and console output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError     = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText      = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
	ColorSubtle    = lipgloss.AdaptiveColor{Light: "#9ca0b0", Dark: "#a6adc8"} // Subtext0
)

// Styles contains reusable lipgloss styles for the TUI.
type Styles struct {
	App      lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Group    lipgloss.Style

	// Status styles
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Menu rows
	ListItem       lipgloss.Style
	ListItemActive lipgloss.Style
	Checked        lipgloss.Style
	Description    lipgloss.Style

	// Help text
	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

// DefaultStyles returns the default TUI styles.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles returns the default styles bound to renderer r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		App: r.NewStyle().
			Padding(1, 2),

		Title: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1),

		Subtitle: r.NewStyle().
			Foreground(ColorSecondary),

		Group: r.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			MarginTop(1),

		Success: r.NewStyle().
			Foreground(ColorSuccess),

		Warning: r.NewStyle().
			Foreground(ColorWarning),

		Error: r.NewStyle().
			Foreground(ColorError),

		Info: r.NewStyle().
			Foreground(ColorPrimary),

		ListItem: r.NewStyle().
			Foreground(ColorText),

		ListItemActive: r.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		Checked: r.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		Description: r.NewStyle().
			Foreground(ColorSubtle),

		Help: r.NewStyle().
			Foreground(ColorMuted),

		HelpKey: r.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
	}
}

// WithWidth returns styles adapted for a specific terminal width.
func (s Styles) WithWidth(width int) Styles {
	s.App = s.App.Width(width)
	return s
}
