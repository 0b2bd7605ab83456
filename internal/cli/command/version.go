package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			return rt.Print(buildinfo.Get())
		},
	}
}
