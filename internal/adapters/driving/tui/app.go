package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/views/domains"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/views/logs"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/statesync/internal/adapters/driving/tui/views/plugins"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

// refreshInterval is how often the status snapshot is reloaded.
const refreshInterval = 2 * time.Second

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView      *menu.View
	dashboardView *dashboard.View
	domainsView   *domains.View
	logsView      *logs.View
	pluginsView   *plugins.View
	statusBar     *status.Bar

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		menuView:      menu.NewView(s),
		dashboardView: dashboard.NewView(s, ports.Sync),
		domainsView:   domains.NewView(s, ports.State),
		logsView:      logs.NewView(s, ports.Sync),
		pluginsView:   plugins.NewView(s, ports.State),
		statusBar:     status.NewBar(s, km),
		currentView:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.domainsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("statesync"),
		a.dashboardView.Load(a.ctx),
		a.tick(),
		a.waitForEvent(),
	)
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return messages.Tick{At: t}
	})
}

// waitForEvent blocks on the notifier channel; it is re-armed after each event.
func (a *App) waitForEvent() tea.Cmd {
	ch := a.ports.Events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return messages.RemoteChanged{Event: ev}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.StatusLoaded:
		a.dashboardView, _ = a.dashboardView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
		} else if msg.Status != nil {
			a.domainsView.SetDisabled(msg.Status.Disabled)
		}
		a.updateStatusBar(msg.Status, msg.Err)
		return a, nil

	case messages.SyncRequested:
		return a, a.syncNow()

	case messages.SyncCompleted:
		a.dashboardView, _ = a.dashboardView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, tea.Batch(a.dashboardView.Load(a.ctx), a.logsView.Load())

	case messages.LogsLoaded:
		a.logsView, cmd = a.logsView.Update(msg)
		return a, cmd

	case messages.PluginsLoaded:
		a.pluginsView, cmd = a.pluginsView.Update(msg)
		return a, cmd

	case messages.DomainToggled:
		a.domainsView, cmd = a.domainsView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
			return a, cmd
		}
		return a, tea.Batch(cmd, a.dashboardView.Load(a.ctx))

	case messages.RemoteChanged:
		cmds := []tea.Cmd{a.dashboardView.Load(a.ctx), a.waitForEvent()}
		if a.currentView == messages.ViewPlugins {
			cmds = append(cmds, a.pluginsView.Load(a.ctx))
		}
		return a, tea.Batch(cmds...)

	case messages.Tick:
		cmds := []tea.Cmd{a.dashboardView.Load(a.ctx), a.tick()}
		if a.currentView == messages.ViewLogs {
			cmds = append(cmds, a.logsView.Load())
		}
		return a, tea.Batch(cmds...)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.updateStatusBar(nil, msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	if k == "ctrl+c" {
		return tea.Quit
	}

	switch {
	case keymap.Matches(k, a.keymap.SyncNow):
		return a.syncNow()
	case keymap.Matches(k, a.keymap.Help):
		return a.switchTo(messages.ViewHelp)
	case keymap.Matches(k, a.keymap.Logs):
		return a.switchTo(messages.ViewLogs)
	case keymap.Matches(k, a.keymap.Plugins):
		return a.switchTo(messages.ViewPlugins)
	}

	var cmd tea.Cmd
	if a.currentView == messages.ViewMenu {
		a.menuView, cmd = a.menuView.Update(msg)
		return cmd
	}

	switch {
	case keymap.Matches(k, a.keymap.Back):
		return a.switchTo(messages.ViewMenu)
	case k == "q":
		return tea.Quit
	case keymap.Matches(k, a.keymap.Refresh):
		return a.reload()
	}

	switch a.currentView {
	case messages.ViewDomains:
		a.domainsView, cmd = a.domainsView.Update(msg)
	case messages.ViewLogs:
		a.logsView, cmd = a.logsView.Update(msg)
	case messages.ViewPlugins:
		a.pluginsView, cmd = a.pluginsView.Update(msg)
	case messages.ViewDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
	case messages.ViewMenu, messages.ViewHelp:
	}
	return cmd
}

func (a *App) syncNow() tea.Cmd {
	cmd := a.dashboardView.SyncNow(a.ctx)
	if cmd != nil {
		a.statusBar.SetState(status.StateSyncing)
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	a.err = nil
	if view == messages.ViewDomains {
		a.statusBar.SetHints(a.keymap.DomainsHelp())
	} else {
		a.statusBar.SetHints(nil)
	}
	return a.reload()
}

// reload fetches fresh data for the active view.
func (a *App) reload() tea.Cmd {
	switch a.currentView {
	case messages.ViewDashboard, messages.ViewDomains:
		return a.dashboardView.Load(a.ctx)
	case messages.ViewLogs:
		return a.logsView.Load()
	case messages.ViewPlugins:
		return a.pluginsView.Load(a.ctx)
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

func (a *App) updateStatusBar(st *driving.SyncStatus, err error) {
	switch {
	case err != nil:
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(err.Error())
	case a.dashboardView.Syncing():
		a.statusBar.SetState(status.StateSyncing)
	case st == nil:
	case st.Initializing:
		a.statusBar.SetState(status.StateSyncing)
	case st.Connected:
		a.statusBar.SetState(status.StateConnected)
		a.statusBar.SetLastSync(st.LastSync)
	case st.LastError != "":
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(st.LastError)
	default:
		a.statusBar.SetState(status.StateOffline)
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDashboard:
		body = a.dashboardView.View()
	case messages.ViewDomains:
		body = a.domainsView.View()
	case messages.ViewLogs:
		body = a.logsView.View()
	case messages.ViewPlugins:
		body = a.pluginsView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.menuView.View()
	}

	pad := a.height - strings.Count(body, "\n") - 2
	if pad < 1 {
		pad = 1
	}
	return body + strings.Repeat("\n", pad) + a.statusBar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.dashboardView.SetDimensions(width, height)
	a.logsView.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}
