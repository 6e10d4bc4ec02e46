package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// Flags for plugin add, approve and ignore.
var (
	pluginURL     string
	pluginFile    string
	pluginVersion int
	pluginAll     bool
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage online plugin records",
	Long: `Install, remove and list online plugin records. Removal is a soft delete
so it reaches other devices, which then delete their copy of the file.`,
}

var pluginAddCmd = &cobra.Command{
	Use:   "add [internal-name]",
	Short: "Install or revive a plugin",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginAdd,
}

var pluginRemoveCmd = &cobra.Command{
	Use:     "rm [internal-name]",
	Aliases: []string{"remove"},
	Short:   "Soft-delete a plugin",
	Args:    cobra.ExactArgs(1),
	RunE:    runPluginRemove,
}

var pluginListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List plugin records",
	RunE:    runPluginList,
}

var pluginPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List plugins other devices installed that await approval",
	RunE:  runPluginPending,
}

var pluginApproveCmd = &cobra.Command{
	Use:   "approve [internal-name]",
	Short: "Download a pending plugin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPluginApprove,
}

var pluginIgnoreCmd = &cobra.Command{
	Use:   "ignore [internal-name]",
	Short: "Stop offering a pending plugin on this device",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPluginIgnore,
}

func init() {
	pluginApproveCmd.Flags().BoolVar(&pluginAll, "all", false, "approve every pending plugin")
	pluginIgnoreCmd.Flags().BoolVar(&pluginAll, "all", false, "ignore every pending plugin")
	pluginAddCmd.Flags().StringVar(&pluginURL, "url", "", "download URL")
	pluginAddCmd.Flags().StringVar(&pluginFile, "file", "", "local file path")
	pluginAddCmd.Flags().IntVar(&pluginVersion, "version", 0, "plugin version")

	pluginCmd.AddCommand(pluginAddCmd)
	pluginCmd.AddCommand(pluginRemoveCmd)
	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginPendingCmd)
	pluginCmd.AddCommand(pluginApproveCmd)
	pluginCmd.AddCommand(pluginIgnoreCmd)
	rootCmd.AddCommand(pluginCmd)
}

func runPluginAdd(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	rec := domain.PluginRecord{
		InternalName: args[0],
		URL:          pluginURL,
		FilePath:     pluginFile,
		Version:      pluginVersion,
	}
	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.InstallPlugin(ctx, rec); err != nil {
			return fmt.Errorf("failed to install plugin: %w", err)
		}
		cmd.Printf("Installed %s.\n", args[0])
		return nil
	})
}

func runPluginRemove(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.RemovePlugin(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to remove plugin: %w", err)
		}
		cmd.Printf("Removed %s.\n", args[0])
		return nil
	})
}

func runPluginList(cmd *cobra.Command, _ []string) error {
	if err := requireState(); err != nil {
		return err
	}
	records, err := stateService.ListPlugins(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list plugins: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No plugins.")
		return nil
	}
	for _, p := range records {
		state := "installed"
		if p.IsDeleted {
			state = "deleted"
		}
		cmd.Printf("%-24s %-9s v%d  %s\n", p.InternalName, state, p.Version, formatMillis(p.AddedDate))
	}
	return nil
}

func runPluginPending(cmd *cobra.Command, _ []string) error {
	if err := requireApprovals(); err != nil {
		return err
	}
	pending, err := approvals.Pending(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list pending plugins: %w", err)
	}
	if len(pending) == 0 {
		cmd.Println("No pending plugins.")
		return nil
	}
	for _, p := range pending {
		cmd.Printf("%-24s v%d  %s\n", p.InternalName, p.Version, p.URL)
	}
	return nil
}

// pendingTarget checks that exactly one of a name or --all was given.
func pendingTarget(args []string) (string, error) {
	switch {
	case pluginAll && len(args) > 0:
		return "", fmt.Errorf("%w: give a plugin name or --all, not both", domain.ErrInvalidInput)
	case !pluginAll && len(args) == 0:
		return "", fmt.Errorf("%w: give a plugin name or --all", domain.ErrInvalidInput)
	case pluginAll:
		return "", nil
	}
	return args[0], nil
}

func runPluginApprove(cmd *cobra.Command, args []string) error {
	if err := requireApprovals(); err != nil {
		return err
	}
	name, err := pendingTarget(args)
	if err != nil {
		return err
	}
	if name != "" {
		if err := approvals.InstallPending(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to install %s: %w", name, err)
		}
		cmd.Printf("Installed %s.\n", name)
		return nil
	}
	n, err := approvals.InstallAllPending(cmd.Context())
	cmd.Printf("Installed %d pending plugin(s).\n", n)
	if err != nil {
		return fmt.Errorf("some plugins failed to install: %w", err)
	}
	return nil
}

func runPluginIgnore(cmd *cobra.Command, args []string) error {
	if err := requireApprovals(); err != nil {
		return err
	}
	name, err := pendingTarget(args)
	if err != nil {
		return err
	}
	if name != "" {
		if err := approvals.IgnorePending(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to ignore %s: %w", name, err)
		}
		cmd.Printf("Ignored %s.\n", name)
		return nil
	}
	n, err := approvals.IgnoreAllPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to ignore pending plugins: %w", err)
	}
	cmd.Printf("Ignored %d pending plugin(s).\n", n)
	return nil
}
