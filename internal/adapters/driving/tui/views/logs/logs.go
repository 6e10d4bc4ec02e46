// Package logs shows the sync engine's in-memory log ring.
package logs

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// chrome is the number of lines used by the title and footer.
const chrome = 5

// View is a scrollable, newest-last log listing.
type View struct {
	styles *styles.Styles
	sync   driving.SyncService
	lines  []string
	offset int
	follow bool
	width  int
	height int
}

// NewView creates a log view.
func NewView(s *styles.Styles, sync driving.SyncService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, sync: sync, follow: true, width: 80, height: 24}
}

// Load returns a command that snapshots the engine logs.
func (v *View) Load() tea.Cmd {
	svc := v.sync
	return func() tea.Msg {
		if svc == nil {
			return messages.LogsLoaded{}
		}
		return messages.LogsLoaded{Lines: svc.Logs()}
	}
}

// Update handles scrolling and reloads.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.LogsLoaded:
		v.lines = msg.Lines
		if v.follow {
			v.offset = v.maxOffset()
		}
		v.offset = min(v.offset, v.maxOffset())
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.offset > 0 {
				v.offset--
			}
		case "down", "j":
			if v.offset < v.maxOffset() {
				v.offset++
			}
		case "g":
			v.offset = 0
		case "G":
			v.offset = v.maxOffset()
		}
		v.follow = v.offset == v.maxOffset()
	}
	return v, nil
}

func (v *View) pageSize() int {
	return max(v.height-chrome, 1)
}

func (v *View) maxOffset() int {
	return max(len(v.lines)-v.pageSize(), 0)
}

// View renders the visible page of log lines.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Logs"))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("No activity yet."))
		b.WriteString("\n")
	} else {
		end := min(v.offset+v.pageSize(), len(v.lines))
		for _, line := range v.lines[v.offset:end] {
			b.WriteString(v.styles.Normal.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Scroll  [g/G] Top/Bottom  [r] Refresh  [esc] Back"))
	return b.String()
}

// Lines returns the loaded log lines.
func (v *View) Lines() []string {
	return v.lines
}

// Offset returns the index of the first visible line.
func (v *View) Offset() int {
	return v.offset
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.offset = min(v.offset, v.maxOffset())
}
