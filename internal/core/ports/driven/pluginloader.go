package driven

import (
	"context"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// PluginLoader turns plugin records into loaded code on this device.
type PluginLoader interface {
	// Unload stops a loaded plugin. Unloading a plugin that is not loaded is a no-op.
	Unload(ctx context.Context, pluginPath string) error

	// DeleteFile removes the plugin's backing file. A missing file is not an error.
	DeleteFile(ctx context.Context, pluginPath string) error

	// DownloadAndLoadMissing fetches and loads live plugins absent on this device.
	DownloadAndLoadMissing(ctx context.Context, mode domain.AutoDownloadMode) error
}
