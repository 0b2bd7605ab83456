// Package shutdown runs cleanup hooks (closing the settings store, stopping
// watchers and the metrics endpoint) when the interactive shell exits.
package shutdown
