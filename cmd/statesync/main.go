// Command statesync keeps a device's local app state in sync with a shared
// remote document.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/statesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/statesync/internal/adapters/driven/notify"
	"github.com/custodia-labs/statesync/internal/adapters/driven/plugins/filesystem"
	"github.com/custodia-labs/statesync/internal/adapters/driven/remote/httpdoc"
	"github.com/custodia-labs/statesync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/statesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/statesync/internal/core/services"
	"github.com/custodia-labs/statesync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env: %v", err)
	}

	configStore, err := file.NewConfigStore(file.DefaultConfigDir())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app := file.LoadAppConfig(configStore, os.Getenv)

	store, err := sqlite.NewStore(app.DataDir)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer store.Close()
	local := store.LocalStore()

	loader := filesystem.NewLoader(app.PluginDir, local)
	if err := loader.Load(); err != nil {
		logger.Warn("load plugins: %v", err)
	}

	events := notify.NewBroadcaster()
	notifier := notify.Multi{events, notify.LogNotifier{}}

	engine := services.NewSyncEngine(
		local,
		httpdoc.NewConnector(app.Endpoint),
		loader,
		notifier,
		services.OptionsFromConfig(app),
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Sync:        engine,
		State:       services.NewStateService(local, time.Now),
		App:         app,
		Credentials: file.EnvCredentials(os.Getenv),
		Events:      events,
		PluginWatch: loader.Watch,
		Approvals:   loader,
	})
	return cli.Execute()
}
