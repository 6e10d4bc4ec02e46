// Package domain defines the core entities of the statesync engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SyncConfig: Credentials for reaching one remote account
//   - Domain: A named slice of local state with its own merge policy
//   - RemoteDocument: The shared per-account document and its timestamps
//   - ResumeRecord, Tombstones: The resume-watching CRDT state
//   - PluginRecord: The installed-plugin CRDT state
//   - KeyFilter: The typed deny-list used to decide push eligibility
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
