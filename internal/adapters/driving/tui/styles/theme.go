// Package styles provides colour themes and styling for the statesync TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the dashboard palette. Each colour adapts to light and dark
// terminal backgrounds.
type Theme struct {
	Accent    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultTheme returns the default palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Muted:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Success:   lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"},
		Warning:   lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
		Error:     lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Border:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Bar:       lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"},
	}
}

// Styles contains the pre-built lipgloss styles the views render with.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	StatusBar lipgloss.Style

	// Label is the fixed-width left column of key/value rows.
	Label lipgloss.Style

	// Panel boxes a dashboard section.
	Panel lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme:     theme,
		Title:     fg(theme.Accent).Bold(true),
		Subtitle:  fg(theme.Highlight).Bold(true),
		Normal:    fg(theme.Text),
		Muted:     fg(theme.Muted),
		Success:   fg(theme.Success),
		Warning:   fg(theme.Warning),
		Error:     fg(theme.Error),
		Help:      fg(theme.Muted).Italic(true),
		StatusBar: fg(theme.Muted).Background(theme.Bar).Padding(0, 1),
		Label:     fg(theme.Muted).Width(14),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
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

// Flag renders an on/off indicator.
func (s *Styles) Flag(on bool) string {
	if on {
		return s.Success.Render("on")
	}
	return s.Muted.Render("off")
}
