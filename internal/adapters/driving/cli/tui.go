package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/adapters/driving/tui"
	"github.com/custodia-labs/statesync/internal/core/services"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for statesync.

The TUI keeps a sync session open while it runs and shows connection
state, recent engine activity, installed plugins and per-domain toggles.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select
  s        - Sync now
  r        - Refresh
  l / p    - Logs / Plugins
  Esc      - Back
  ?        - Help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := tui.NewPorts(syncService, stateService)
	if err := ports.Validate(); err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	return withSession(cmd.Context(), func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		if events != nil {
			ch, unsubscribe := events.Subscribe(16)
			defer unsubscribe()
			ports.Events = ch
		}
		if !offline {
			go func() {
				_ = services.NewReconnectScheduler(appConfig.ReconnectInterval, syncService).Start(ctx)
			}()
		}

		app, err := tui.NewApp(ports)
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		if err := app.WithContext(ctx).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
