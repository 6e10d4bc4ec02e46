// Package crdt implements the conflict resolution used when a remote
// document snapshot is merged into local state.
//
// Three policies are provided:
//
//   - Scalar overwrite: remote wins whenever it differs. There is no per-key
//     timestamp, so a concurrent local edit that has not been pushed yet is
//     discarded.
//   - Plugin merge: last-writer-wins on PluginRecord.AddedDate with ties
//     going to the remote side, plus implicit soft deletion of local-only
//     records the remote has forgotten.
//   - Resume merge: alive records and deletion tombstones, reconciled in a
//     zombie pass followed by an alive pass.
//
// Every function is pure: inputs are never mutated and the same inputs
// always produce the same result. Applying a result a second time yields
// no further changes.
//
// # Import Rules
//
//   - Can Import: domain package, standard library
//   - Cannot Import: ports, services, adapters
package crdt
