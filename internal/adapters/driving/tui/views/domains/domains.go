// Package domains lists the synced domains and toggles them per device.
package domains

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// View is a selectable list of domains with their enabled flag.
type View struct {
	styles   *styles.Styles
	state    driving.StateService
	ctx      context.Context
	items    []domain.Domain
	disabled map[domain.Domain]bool
	selected int
	err      error
}

// NewView creates a domain list. The deleted-resume half is toggled together
// with resume_watching and is not listed.
func NewView(s *styles.Styles, state driving.StateService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	items := make([]domain.Domain, 0, len(domain.AllDomains()))
	for _, d := range domain.AllDomains() {
		if d != domain.DomainResumeWatchingDeleted {
			items = append(items, d)
		}
	}
	return &View{
		styles:   s,
		state:    state,
		ctx:      context.Background(),
		items:    items,
		disabled: make(map[domain.Domain]bool),
	}
}

// WithContext sets the context used for toggle calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDisabled replaces the disabled set from a status snapshot.
func (v *View) SetDisabled(disabled []domain.Domain) {
	v.disabled = make(map[domain.Domain]bool, len(disabled))
	for _, d := range disabled {
		v.disabled[d] = true
	}
}

// Enabled reports whether the domain is currently shown as enabled.
func (v *View) Enabled(d domain.Domain) bool {
	return !v.disabled[d]
}

// Update handles list navigation and toggling.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case " ", "space", "enter":
			return v, v.toggle(v.items[v.selected])
		}
	case messages.DomainToggled:
		v.err = msg.Err
		if msg.Err == nil {
			v.disabled[msg.Domain] = !msg.Enabled
		}
	}
	return v, nil
}

func (v *View) toggle(d domain.Domain) tea.Cmd {
	if v.state == nil {
		return nil
	}
	enable := v.disabled[d]
	state, ctx := v.state, v.ctx
	return func() tea.Msg {
		err := state.SetDomainEnabled(ctx, d, enable)
		return messages.DomainToggled{Domain: d, Enabled: enable, Err: err}
	}
}

// View renders the domain list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Domains"))
	b.WriteString("\n\n")

	for i, d := range v.items {
		cursor := "  "
		name := v.styles.Normal.Render(d.String())
		if i == v.selected {
			cursor = "> "
			name = v.styles.Subtitle.Render(d.String())
		}
		fmt.Fprintf(&b, "%s%-26s %s\n", cursor, name, v.styles.Flag(v.Enabled(d)))
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [space] Toggle  [esc] Back"))
	return b.String()
}

// Selected returns the domain under the cursor.
func (v *View) Selected() domain.Domain {
	return v.items[v.selected]
}

// Items returns the listed domains.
func (v *View) Items() []domain.Domain {
	return v.items
}
