// Package config loads the gateway configuration.
//
// # Loading Order
//
// Load merges three layers, later layers winning:
//
//  1. Built-in defaults (DefaultConfig)
//  2. The YAML file, when a path is given
//  3. CONDUIT_* environment variables
//
// The merged result is validated before it is returned; an invalid
// configuration never reaches the components.
//
// # Trusted Sources
//
// The trust classifier's authoritative and primary domain sets live in
// their own YAML file so operators can curate them without touching the
// main config. SourceWatcher hot-reloads that file through fsnotify and
// pushes each successfully parsed revision to a callback; a revision
// that fails to parse is logged and skipped, keeping the last good sets
// active.
package config
