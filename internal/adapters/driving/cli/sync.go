package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// Flags for connect.
var (
	connectAPIKey    string
	connectProjectID string
	connectAppID     string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Store credentials and connect to the remote document",
	Long: `Connect stores the sync credentials on this device, runs the first-sync
handshake and enables sync.

Values not given as flags come from STATESYNC_API_KEY, STATESYNC_PROJECT_ID
and STATESYNC_APP_ID, and are prompted for otherwise. The API key prompt
does not echo.`,
	RunE: runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disable sync on this device",
	Long:  `Disconnect closes the remote connection and disables sync. Credentials stay stored.`,
	RunE:  runDisconnect,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local state to the remote document now",
	Long: `Sync connects with the stored credentials, applies the remote document
and pushes the full local state, bypassing the debounce window.`,
	RunE: runSync,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the sync diagnostic log",
	Long:  `Logs connects as 'sync' does and prints every failure recorded in this session.`,
	RunE:  runLogs,
}

func init() {
	connectCmd.Flags().StringVar(&connectAPIKey, "api-key", "", "API key for the remote project")
	connectCmd.Flags().StringVar(&connectProjectID, "project", "", "remote project id")
	connectCmd.Flags().StringVar(&connectAppID, "app", "", "application id")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(logsCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	if err := requireSync(); err != nil {
		return err
	}
	ctx := cmd.Context()

	reader := bufio.NewReader(cmd.InOrStdin())
	cfg := domain.SyncConfig{
		APIKey:    firstNonEmpty(connectAPIKey, credentials.APIKey),
		ProjectID: firstNonEmpty(connectProjectID, credentials.ProjectID),
		AppID:     firstNonEmpty(connectAppID, credentials.AppID),
	}
	if cfg.ProjectID == "" {
		cmd.Print("Project ID: ")
		cfg.ProjectID = readLine(reader)
	}
	if cfg.AppID == "" {
		cmd.Print("App ID: ")
		cfg.AppID = readLine(reader)
	}
	if cfg.APIKey == "" {
		cmd.Print("API key: ")
		cfg.APIKey = readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("project, app and API key are all required: %w", err)
	}

	if err := syncService.Initialize(ctx, cfg); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer syncService.Stop(ctx) //nolint:errcheck // best effort on exit

	cmd.Printf("Connected to project %s as account %s.\n", cfg.ProjectID, appConfig.AccountID)
	return nil
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	if err := requireSync(); err != nil {
		return err
	}
	if err := syncService.Disconnect(cmd.Context()); err != nil {
		return fmt.Errorf("disconnect failed: %w", err)
	}
	cmd.Println("Sync disabled on this device.")
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := requireSync(); err != nil {
		return err
	}
	ctx := cmd.Context()

	cmd.Println("Synchronising...")
	err := withSession(ctx, func(ctx context.Context) error {
		status, err := syncService.Status(ctx)
		if err != nil {
			return err
		}
		if !status.Enabled {
			return fmt.Errorf("sync is disabled, run 'statesync connect' first")
		}
		return syncService.FlushNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	cmd.Println("Local state pushed.")
	return nil
}

func runLogs(cmd *cobra.Command, _ []string) error {
	if err := requireSync(); err != nil {
		return err
	}
	var entries []string
	_ = withSession(cmd.Context(), func(context.Context) error {
		entries = syncService.Logs()
		return nil
	})
	if len(entries) == 0 {
		cmd.Println("No sync failures recorded.")
		return nil
	}
	for _, e := range entries {
		cmd.Println(e)
	}
	return nil
}

// Helper functions.

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads without echo when in is a terminal.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}
