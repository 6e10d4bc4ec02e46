package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/core/services"
	"github.com/custodia-labs/statesync/internal/logger"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Stay connected and sync continuously",
	Long: `Daemon starts the sync engine and keeps it running until interrupted.
Local changes are pushed after the debounce window and remote changes are
applied as they arrive. A dropped connection is retried every
sync.reconnect_interval_s seconds.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if err := requireSync(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := syncService.Start(ctx); err != nil {
		return fmt.Errorf("start sync: %w", err)
	}
	defer func() {
		if err := syncService.Stop(context.Background()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "stop sync: %v\n", err)
		}
	}()

	if status, err := syncService.Status(ctx); err == nil {
		cmd.Print(renderStatus(status))
	}

	if pluginWatch != nil {
		go func() {
			if err := pluginWatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("plugin watcher stopped: %v", err)
			}
		}()
	}

	scheduler := services.NewReconnectScheduler(appConfig.ReconnectInterval, syncService)
	cmd.Println("Syncing. Press Ctrl+C to stop.")
	if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	<-ctx.Done()
	cmd.Println("Stopping...")
	return nil
}
