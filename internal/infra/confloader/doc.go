// Package confloader layers configuration sources with koanf and watches the
// configuration file with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Overrides (explicit command-line flags)
//  2. Environment variables (NDAIFY_ prefix)
//  3. Configuration file (YAML)
//  4. Defaults
package confloader
