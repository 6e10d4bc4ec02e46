// Package filesystem implements the plugin loader over a local plugin
// directory.
//
// Plugin files always live directly inside the directory. Paths carried in
// synced records are reduced to their base name, so a record from another
// device can never point the loader at a file elsewhere on disk.
//
// The loader keeps the set of plugins it has ever fetched under the
// local-only key local/plugins_seen. The new_only download mode consults it
// so a plugin the user deleted by hand is not fetched again.
package filesystem
