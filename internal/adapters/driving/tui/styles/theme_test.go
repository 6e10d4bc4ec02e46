package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"accent":    theme.Accent,
		"highlight": theme.Highlight,
		"text":      theme.Text,
		"muted":     theme.Muted,
		"success":   theme.Success,
		"warning":   theme.Warning,
		"error":     theme.Error,
		"border":    theme.Border,
		"bar":       theme.Bar,
	} {
		assert.NotEmpty(t, c.Light, name)
		assert.NotEmpty(t, c.Dark, name)
	}
}

func TestDefaultTheme_StatusColoursDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[string]bool)
	for _, c := range []lipgloss.AdaptiveColor{theme.Accent, theme.Success, theme.Warning, theme.Error} {
		assert.False(t, seen[c.Dark], "duplicate colour %s", c.Dark)
		seen[c.Dark] = true
	}
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()

	assert.Same(t, theme, NewStyles(theme).Theme())
	assert.NotNil(t, NewStyles(nil).Theme())
	assert.NotNil(t, DefaultStyles().Theme())
}

func TestStyles_Initialised(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"title":     s.Title,
		"subtitle":  s.Subtitle,
		"normal":    s.Normal,
		"muted":     s.Muted,
		"success":   s.Success,
		"warning":   s.Warning,
		"error":     s.Error,
		"help":      s.Help,
		"statusbar": s.StatusBar,
		"label":     s.Label,
		"panel":     s.Panel,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
		assert.Contains(t, style.Render("text"), "text", name)
	}
}

func TestStyles_Flag(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Flag(true), "on")
	assert.Contains(t, s.Flag(false), "off")
}
