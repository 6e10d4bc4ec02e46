package driving

import (
	"context"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// PluginApprovalService manages plugins other devices installed that are
// waiting for approval on this one.
type PluginApprovalService interface {
	// Pending returns live plugins missing on this device and not ignored.
	Pending(ctx context.Context) ([]domain.PluginRecord, error)

	// InstallPending downloads one pending plugin by internal name.
	// Returns domain.ErrNotFound if it is not pending.
	InstallPending(ctx context.Context, internalName string) error

	// InstallAllPending downloads every pending plugin and returns how many
	// were installed. Failures stay pending.
	InstallAllPending(ctx context.Context) (int, error)

	// IgnorePending drops one plugin from the pending list for good.
	IgnorePending(ctx context.Context, internalName string) error

	// IgnoreAllPending ignores every pending plugin and returns how many.
	IgnoreAllPending(ctx context.Context) (int, error)
}
