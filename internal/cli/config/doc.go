// Package config provides the ndaify-cli configuration.
//
//   - spec.go: CLIConfig struct and defaults (~/.ndaify/cli.yaml)
//   - loader.go: layered loading (defaults, file, NDAIFY_* env, flags),
//     validation and saving
package config
