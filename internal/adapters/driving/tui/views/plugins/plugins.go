// Package plugins lists the live plugin records.
package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// View shows installed plugins.
type View struct {
	styles   *styles.Styles
	state    driving.StateService
	plugins  []domain.PluginRecord
	selected int
	err      error
}

// NewView creates a plugin list.
func NewView(s *styles.Styles, state driving.StateService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, state: state}
}

// Load returns a command that reads the plugin list.
func (v *View) Load(ctx context.Context) tea.Cmd {
	state := v.state
	return func() tea.Msg {
		if state == nil {
			return messages.PluginsLoaded{Err: fmt.Errorf("state service unavailable")}
		}
		list, err := state.ListPlugins(ctx)
		return messages.PluginsLoaded{Plugins: list, Err: err}
	}
}

// Update handles navigation and reloads.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PluginsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.plugins = msg.Plugins
			v.selected = min(v.selected, max(len(v.plugins)-1, 0))
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.plugins)-1 {
				v.selected++
			}
		}
	}
	return v, nil
}

// View renders the plugin list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Plugins"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case len(v.plugins) == 0:
		b.WriteString(v.styles.Muted.Render("No plugins installed."))
		b.WriteString("\n")
	default:
		for i, p := range v.plugins {
			cursor := "  "
			name := v.styles.Normal.Render(p.InternalName)
			if i == v.selected {
				cursor = "> "
				name = v.styles.Subtitle.Render(p.InternalName)
			}
			added := time.UnixMilli(p.AddedDate).Local().Format("2006-01-02")
			fmt.Fprintf(&b, "%s%s  %s\n", cursor, name,
				v.styles.Muted.Render(fmt.Sprintf("v%d  added %s", p.Version, added)))
		}
		if p := v.plugins[v.selected]; p.URL != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(p.URL))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [r] Refresh  [esc] Back"))
	return b.String()
}

// Plugins returns the loaded records.
func (v *View) Plugins() []domain.PluginRecord {
	return v.plugins
}
