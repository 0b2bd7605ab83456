package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", fmt.Errorf("%s: %w", name, domain.ErrMissingArgument)
	}
	return arg, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(output.TimeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
