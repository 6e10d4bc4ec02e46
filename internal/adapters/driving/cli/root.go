// Package cli implements the statesync command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/adapters/driven/notify"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
	"github.com/custodia-labs/statesync/internal/logger"
)

// Services holds everything the commands drive.
type Services struct {
	Sync  driving.SyncService
	State driving.StateService

	// App is the loaded application configuration.
	App domain.AppConfig

	// Credentials are defaults for connect, usually from the environment.
	Credentials domain.SyncConfig

	// Events carries reload hints to the TUI. Optional.
	Events *notify.Broadcaster

	// PluginWatch keeps loaded plugins in step with the plugin directory
	// while the daemon runs. Optional.
	PluginWatch func(ctx context.Context) error

	// Approvals manages plugins waiting for approval on this device. Optional.
	Approvals driving.PluginApprovalService
}

var (
	version = "dev"

	verbose bool
	offline bool

	syncService  driving.SyncService
	stateService driving.StateService
	appConfig    = domain.DefaultAppConfig()
	credentials  domain.SyncConfig
	events       *notify.Broadcaster
	pluginWatch  func(ctx context.Context) error
	approvals    driving.PluginApprovalService
)

var rootCmd = &cobra.Command{
	Use:   "statesync",
	Short: "Keep app state in sync across devices",
	Long: `statesync mirrors a device's local key/value state into one shared
remote document per account and merges remote changes back in.

Run 'statesync connect' once to store credentials, then use 'statesync daemon'
to stay in sync or 'statesync sync' to push on demand.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print sync activity to stderr")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "change local state without connecting")
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	syncService = s.Sync
	stateService = s.State
	appConfig = s.App
	credentials = s.Credentials
	events = s.Events
	pluginWatch = s.PluginWatch
	approvals = s.Approvals
}

// SetVersion sets the version reported by 'statesync version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func requireSync() error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	return nil
}

func requireState() error {
	if stateService == nil {
		return errors.New("state service not configured")
	}
	return nil
}

func requireApprovals() error {
	if approvals == nil {
		return errors.New("plugin approvals not configured")
	}
	return nil
}

// withSession runs fn between engine Start and Stop, so local changes made
// by fn are pushed before the command exits. With --offline, fn runs alone.
func withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	if offline || syncService == nil {
		return fn(ctx)
	}
	if err := syncService.Start(ctx); err != nil {
		return err
	}
	err := fn(ctx)
	if stopErr := syncService.Stop(ctx); stopErr != nil {
		logger.Warn("stop sync: %v", stopErr)
	}
	return err
}
