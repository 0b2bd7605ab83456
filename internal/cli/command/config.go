package command

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/ndaify-go/internal/cli/config"
	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/cli/repl"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/core/service"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Local configuration and credentials",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:      "set-key",
				Usage:     "Verify and store an API key",
				ArgsUsage: "[API_KEY]",
				Description: "Without an argument the key is read from the terminal without echo,\n" +
					"or from the first line of standard input when it is not a terminal.\n" +
					"A rejected key is not stored; the previous key stays in place.",
				Action: configSetKey,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored API key",
				Action: configLogout,
			},
		},
	}
}

type configView struct {
	Path   string            `json:"path" yaml:"path"`
	APIKey string            `json:"api_key" yaml:"api_key"`
	Config *config.CLIConfig `json:"config" yaml:"config"`
}

func configShow(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	key, err := client.CurrentAPIKey(c.Context)
	if err != nil {
		return err
	}
	masked := domain.MaskAPIKey(key)
	if masked == "" {
		masked = "(not set)"
	}

	if rt.Format != output.FormatTable {
		return rt.Print(configView{Path: rt.ConfigPath, APIKey: masked, Config: rt.Config})
	}
	data, err := yaml.Marshal(rt.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintf(rt.Out, "# %s\n%s\napi key: %s\n", rt.ConfigPath, data, masked)
	return nil
}

func configSetKey(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	key := strings.TrimSpace(c.Args().First())
	if key == "" {
		if key, err = readKey(c, rt); err != nil {
			return err
		}
	}
	if key == "" {
		return fmt.Errorf("api key: %w", domain.ErrMissingArgument)
	}

	user, err := client.ConfigureAPIKey(c.Context, key, service.RecoveryRevert)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Out, "API key saved. Signed in as %s.\n", user.DisplayName())
	return nil
}

// readKey reads a key from the terminal, or from the app reader when
// standard input is not a terminal.
func readKey(c *cli.Context, rt *Runtime) (string, error) {
	in := c.App.Reader
	if in == nil || in == os.Stdin {
		key, err := repl.TerminalSecrets{In: os.Stdin, Out: rt.Out}.ReadSecret("API key: ")
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, repl.ErrNoTerminal) {
			return "", err
		}
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("api key: %w", domain.ErrMissingArgument)
	}
	return strings.TrimSpace(line), nil
}

func configLogout(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	if err := client.Logout(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(rt.Out, "Logged out. The API key was removed.")
	return nil
}
