// Package dashboard renders the sync engine's connection state and counters.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// View shows the latest SyncStatus.
type View struct {
	styles  *styles.Styles
	sync    driving.SyncService
	status  *driving.SyncStatus
	err     error
	syncing bool
	flash   string
	width   int
	height  int
}

// NewView creates a dashboard backed by the given sync service.
func NewView(s *styles.Styles, sync driving.SyncService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, sync: sync, width: 80, height: 24}
}

// Init loads the first status snapshot.
func (v *View) Init() tea.Cmd {
	return v.Load(context.Background())
}

// Load returns a command that fetches the engine status.
func (v *View) Load(ctx context.Context) tea.Cmd {
	svc := v.sync
	return func() tea.Msg {
		if svc == nil {
			return messages.StatusLoaded{Err: fmt.Errorf("sync service unavailable")}
		}
		st, err := svc.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

// SyncNow returns a command that flushes local state.
func (v *View) SyncNow(ctx context.Context) tea.Cmd {
	if v.syncing || v.sync == nil {
		return nil
	}
	v.syncing = true
	v.flash = ""
	svc := v.sync
	return func() tea.Msg {
		return messages.SyncCompleted{Err: svc.FlushNow(ctx)}
	}
}

// Update handles dashboard messages.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.StatusLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.status = msg.Status
		}
	case messages.SyncCompleted:
		v.syncing = false
		if msg.Err != nil {
			v.flash = "Sync failed: " + msg.Err.Error()
		} else {
			v.flash = "Local state pushed."
		}
	}
	return v, nil
}

// View renders the dashboard.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sync status"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
		return b.String()
	}
	if v.status == nil {
		b.WriteString(v.styles.Muted.Render("Loading..."))
		return b.String()
	}

	st := v.status
	row := func(label, value string) {
		b.WriteString(v.styles.Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Account", st.AccountID)
	row("Sync", v.styles.Flag(st.Enabled))
	switch {
	case st.Initializing:
		row("Connection", v.styles.Warning.Render("handshaking"))
	case st.Connected:
		row("Connection", v.styles.Success.Render("connected"))
	default:
		row("Connection", v.styles.Muted.Render("offline"))
	}
	if st.Config.ProjectID != "" {
		cfg := st.Config.Redacted()
		row("Project", cfg.ProjectID)
		row("App", cfg.AppID)
		row("API key", cfg.APIKey)
	}
	row("Last sync", formatTime(st.LastSync))
	pending := "no"
	if st.PushPending || v.syncing {
		pending = v.styles.Warning.Render("yes")
	}
	row("Push pending", pending)
	row("Pushes", fmt.Sprintf("%d", st.Pushes))
	row("Applies", fmt.Sprintf("%d", st.Applies))
	row("Failures", fmt.Sprintf("%d", st.Failures))
	if len(st.Disabled) > 0 {
		names := make([]string, len(st.Disabled))
		for i, d := range st.Disabled {
			names[i] = d.String()
		}
		row("Disabled", strings.Join(names, ", "))
	}
	if st.LastError != "" {
		row("Last error", v.styles.Error.Render(st.LastError))
	}

	if v.flash != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render(v.flash))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[s] Sync now  [r] Refresh  [esc] Back"))
	return b.String()
}

// Status returns the last loaded status, or nil.
func (v *View) Status() *driving.SyncStatus {
	return v.status
}

// Syncing reports whether a manual flush is in flight.
func (v *View) Syncing() bool {
	return v.syncing
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
