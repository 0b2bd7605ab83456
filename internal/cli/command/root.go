package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "ndaify",
		Usage:   "Send and manage nondisclosure agreements with NDAify",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Action:  shellRun,
		Commands: []*cli.Command{
			SessionCommand(),
			NdaCommand(),
			APIKeyCommand(),
			PaymentCommand(),
			TemplateCommand(),
			OpenAPICommand(),
			StatsCommand(),
			ConfigCommand(),
			ShellCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			c.App.Metadata[runtimeKey] = rt
			return nil
		},
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				return rt.Close()
			}
			return nil
		},
		HideHelpCommand: true,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ~/.ndaify/cli.yaml)",
			EnvVars: []string{"NDAIFY_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "NDAify API base URL",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "store-dir",
			Usage: "Directory of the settings store",
		},
	}
}

// flagOverrides maps explicitly set global flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"base-url":  "api.base_url",
		"output":    "output",
		"log-level": "log.level",
		"store-dir": "store.dir",
	}
	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

// Main runs the application with args and returns the process exit code.
// Errors are printed to stderr as the message a user should see.
func Main(args []string, stdout, stderr io.Writer) int {
	app := App()
	app.Writer = stdout
	app.ErrWriter = stderr
	if err := app.Run(args); err != nil {
		PrintError(stderr, err)
		return 1
	}
	return 0
}

// PrintError prints the user-facing message of err.
func PrintError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "error: %s\n", domain.UserMessage(err))
}
