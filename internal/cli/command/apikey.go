package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// APIKeyCommand returns the apikey subcommand group.
func APIKeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apikey",
		Usage: "Manage the API keys of your account",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List API keys",
				Action: apikeyList,
			},
			{
				Name:  "create",
				Usage: "Create a new API key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Key name",
						Required: true,
					},
				},
				Action: apikeyCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete an API key",
				ArgsUsage: "API_KEY_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: apikeyDelete,
			},
		},
	}
}

func apikeyList(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	keys, err := client.GetAPIKeys(c.Context)
	if err != nil {
		return err
	}
	return rt.Print(apiKeyRows(keys))
}

func apikeyCreate(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	key, err := client.CreateAPIKey(c.Context, c.String("name"))
	if err != nil {
		return err
	}
	if rt.Format != output.FormatTable {
		return rt.Print(key)
	}

	fmt.Fprintf(rt.Out, "API key created:\n")
	fmt.Fprintf(rt.Out, "  ID:   %s\n", key.APIKeyID)
	fmt.Fprintf(rt.Out, "  Name: %s\n", orDash(key.Name))
	fmt.Fprintf(rt.Out, "  Key:  %s\n", key.Key)
	fmt.Fprintf(rt.Out, "\nSave this key now. It cannot be retrieved later.\n")
	return nil
}

func apikeyDelete(c *cli.Context) error {
	id, err := requireArg(c, "API_KEY_ID")
	if err != nil {
		return err
	}
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if !c.Bool("force") && !confirm(c, rt, fmt.Sprintf("Delete API key '%s'?", id)) {
		fmt.Fprintln(rt.Out, "Cancelled.")
		return nil
	}

	client, err := rt.Client()
	if err != nil {
		return err
	}
	if err := client.DeleteAPIKey(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(rt.Out, "API key %s deleted.\n", id)
	return nil
}

// confirm asks a yes/no question on the app's reader.
func confirm(c *cli.Context, rt *Runtime, question string) bool {
	fmt.Fprintf(rt.Out, "%s [y/N]: ", question)
	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

type apiKeyRows []domain.APIKey

func (l apiKeyRows) Table(wide bool) *output.Table {
	headers := []string{"API KEY ID", "NAME", "CREATED"}
	if wide {
		headers = append(headers, "UPDATED")
	}
	t := output.NewTable(headers...)
	for _, k := range l {
		row := []string{k.APIKeyID, orDash(k.Name), formatTime(k.CreatedAt)}
		if wide {
			row = append(row, formatTime(k.UpdatedAt))
		}
		t.AddRow(row...)
	}
	return t
}
