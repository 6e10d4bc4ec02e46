// Package services implements the driving port interfaces.
// Services contain the core sync logic and orchestrate calls to
// driven ports (adapters).
//
// SyncEngine owns the remote connection, the first-sync handshake, the
// realtime subscription and the debounced push path. StateService performs
// local mutations. ReconnectScheduler retries a dropped connection for
// long-running processes.
package services
