package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/core/ports/driving"
)

var statusJSON bool

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long: `Status connects with the stored credentials when sync is enabled and
reports the connection, the last sync time and the per-domain toggles.
Use --offline to report without connecting.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := requireSync(); err != nil {
		return err
	}

	var status *driving.SyncStatus
	err := withSession(cmd.Context(), func(ctx context.Context) error {
		var err error
		status, err = syncService.Status(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	cmd.Print(renderStatus(status))
	return nil
}

// renderStatus formats a status report.
func renderStatus(s *driving.SyncStatus) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	switch {
	case !s.Enabled:
		row("Sync", dimStyle.Render("disabled"))
	case s.Connected:
		row("Sync", okStyle.Render("connected"))
	case s.Initializing:
		row("Sync", warnStyle.Render("connecting"))
	default:
		row("Sync", errStyle.Render("disconnected"))
	}
	row("Account", s.AccountID)
	if s.Config.ProjectID != "" {
		row("Project", s.Config.ProjectID)
		row("App", s.Config.AppID)
		row("API key", s.Config.APIKey)
	}
	row("Last sync", formatTime(s.LastSync))
	if s.PushPending {
		row("Pending", warnStyle.Render("push scheduled"))
	}
	row("Activity", fmt.Sprintf("%d pushes, %d applies, %d failures", s.Pushes, s.Applies, s.Failures))
	if len(s.Disabled) > 0 {
		names := make([]string, len(s.Disabled))
		for i, d := range s.Disabled {
			names[i] = string(d)
		}
		row("Disabled", strings.Join(names, ", "))
	}
	if s.LastError != "" {
		row("Last error", errStyle.Render(s.LastError))
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
