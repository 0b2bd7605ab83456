// Package command defines the ndaify command line with urfave/cli/v2.
//
// Every command loads the layered configuration, opens the settings store
// on demand and calls the API through the service client. The shell
// command starts the interactive screens instead.
package command
