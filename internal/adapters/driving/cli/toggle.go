package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle [domain] [on|off]",
	Short: "Switch syncing of one domain on or off",
	Long: `Toggle enables or disables one synced domain on this device. A disabled
domain is neither pushed nor applied. Without arguments, lists the domains
and their state.

Domains: settings, home_settings, data_store_dump, repositories, accounts,
plugins_online, resume_watching.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runToggle,
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return listToggles(cmd)
	case 1:
		return fmt.Errorf("usage: statesync toggle [domain] [on|off]")
	}
	if err := requireState(); err != nil {
		return err
	}

	d := domain.Domain(args[0])
	if !d.IsValid() || d == domain.DomainResumeWatchingDeleted {
		return fmt.Errorf("unknown domain %q", args[0])
	}
	var enabled bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "enable":
		enabled = true
	case "off", "false", "disable":
	default:
		return fmt.Errorf("expected on or off, got %q", args[1])
	}

	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.SetDomainEnabled(ctx, d, enabled); err != nil {
			return fmt.Errorf("failed to toggle %s: %w", d, err)
		}
		cmd.Printf("%s sync %s.\n", d, map[bool]string{true: "enabled", false: "disabled"}[enabled])
		return nil
	})
}

func listToggles(cmd *cobra.Command) error {
	if err := requireSync(); err != nil {
		return err
	}
	status, err := syncService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	disabled := make(map[domain.Domain]bool, len(status.Disabled))
	for _, d := range status.Disabled {
		disabled[d] = true
	}
	for _, d := range domain.AllDomains() {
		if d == domain.DomainResumeWatchingDeleted {
			continue
		}
		state := okStyle.Render("on")
		if disabled[d] {
			state = dimStyle.Render("off")
		}
		cmd.Printf("%-24s %s\n", d, state)
	}
	return nil
}
