// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - LocalStore: Durable key/value device state with change notification
//   - RemoteConnector: Opens a RemoteStore for a SyncConfig
//   - RemoteStore: The shared per-account document
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the engine skips the side effect:
//
//   - PluginLoader: Removes soft-deleted plugin files and fetches missing ones
//   - Notifier: Tells presentation layers that a domain was overwritten
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
