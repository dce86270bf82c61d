// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the review progress display.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Pass indicates a satisfied rule.
	Pass lipgloss.Color

	// Risk indicates a conflicting clause.
	Risk lipgloss.Color

	// Failed indicates a rule whose review errored.
	Failed lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Pass:       lipgloss.Color("#A6E3A1"), // Green
		Risk:       lipgloss.Color("#F9E2AF"), // Yellow
		Failed:     lipgloss.Color("#F38BA8"), // Red
	}
}

// Styles contains pre-configured lipgloss styles for verdict rendering.
type Styles struct {
	theme *Theme

	// Title style for the header line.
	Title lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text and MISSING verdicts.
	Muted lipgloss.Style

	// Pass style for PASS verdict lines.
	Pass lipgloss.Style

	// Risk style for RISK verdict lines.
	Risk lipgloss.Style

	// Failed style for FAILED verdict lines.
	Failed lipgloss.Style

	// Help style for keybinding hints.
	Help lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Pass: lipgloss.NewStyle().
			Foreground(theme.Pass),

		Risk: lipgloss.NewStyle().
			Foreground(theme.Risk),

		Failed: lipgloss.NewStyle().
			Foreground(theme.Failed),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
