package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// SessionCommand prints the account behind the stored API key.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"whoami"},
		Usage:   "Show the account of the stored API key",
		Action:  sessionShow,
	}
}

func sessionShow(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	user, err := client.GetSession(c.Context)
	if err != nil {
		return err
	}
	return rt.Print(userView{user})
}

type userView struct{ *domain.User }

func (u userView) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("User ID", u.UserID)
	t.AddRow("Name", u.DisplayName())
	if p := u.Metadata.LinkedInProfile; p != nil && p.Email != "" {
		t.AddRow("Email", p.Email)
	}
	return t
}
