package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// NdaCommand returns the nda subcommand group.
func NdaCommand() *cli.Command {
	return &cli.Command{
		Name:  "nda",
		Usage: "Manage nondisclosure agreements",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your NDAs",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "status",
						Aliases: []string{"s"},
						Usage:   "Only show these statuses (pending, signed, revoked, declined)",
					},
				},
				Action: ndaList,
			},
			{
				Name:      "get",
				Usage:     "Show an NDA",
				ArgsUsage: "NDA_ID",
				Action:    ndaGet,
			},
			{
				Name:      "preview",
				Usage:     "Show the public preview of an NDA",
				ArgsUsage: "NDA_ID",
				Action:    ndaPreview,
			},
			{
				Name:  "create",
				Usage: "Send a new NDA",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "recipient-email", Aliases: []string{"e"}, Usage: "Recipient email", Required: true},
					&cli.StringFlag{Name: "recipient-name", Aliases: []string{"n"}, Usage: "Recipient full name"},
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Template id (owner/repo/ref/path)"},
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Message to the recipient"},
				},
				Action: ndaCreate,
			},
			ndaActionCommand("accept", "Accept an NDA sent to you", "accepted"),
			ndaActionCommand("revoke", "Revoke a pending NDA", "revoked"),
			ndaActionCommand("decline", "Decline an NDA sent to you", "declined"),
			ndaActionCommand("resend", "Resend a pending NDA", "resent"),
		},
	}
}

func ndaList(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	var statuses []domain.NdaStatus
	for _, s := range c.StringSlice("status") {
		for _, part := range strings.Split(s, ",") {
			st, err := domain.ParseNdaStatus(part)
			if err != nil {
				return err
			}
			statuses = append(statuses, st)
		}
	}
	ndas, err := client.GetNdas(c.Context)
	if err != nil {
		return err
	}
	return rt.Print(ndaRows(domain.FilterNdasByStatus(ndas, statuses...)))
}

func ndaGet(c *cli.Context) error {
	id, err := requireArg(c, "NDA_ID")
	if err != nil {
		return err
	}
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	nda, err := client.GetNda(c.Context, id)
	if err != nil {
		return err
	}
	return rt.Print(ndaView{nda})
}

func ndaPreview(c *cli.Context) error {
	id, err := requireArg(c, "NDA_ID")
	if err != nil {
		return err
	}
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	nda, err := client.GetNdaPreview(c.Context, id)
	if err != nil {
		return err
	}
	return rt.Print(ndaView{nda})
}

func ndaCreate(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	if tpl := c.String("template"); tpl != "" {
		if _, err := domain.ParseTemplateID(tpl); err != nil {
			return err
		}
	}
	req := domain.CreateNdaRequest{Metadata: domain.NdaMetadata{
		NdaTemplateID: c.String("template"),
		Recipient: domain.Party{
			Email:    strings.TrimSpace(c.String("recipient-email")),
			FullName: c.String("recipient-name"),
		},
		Message: c.String("message"),
	}}
	nda, err := client.CreateNda(c.Context, req)
	if err != nil {
		return err
	}
	return rt.Print(ndaView{nda})
}

func ndaActionCommand(name, usage, done string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "NDA_ID",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "NDA_ID")
			if err != nil {
				return err
			}
			rt, client, err := clientFrom(c)
			if err != nil {
				return err
			}
			actions := map[string]func() error{
				"accept":  func() error { return client.AcceptNda(c.Context, id) },
				"revoke":  func() error { return client.RevokeNda(c.Context, id) },
				"decline": func() error { return client.DeclineNda(c.Context, id) },
				"resend":  func() error { return client.ResendNda(c.Context, id) },
			}
			if err := actions[name](); err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "NDA %s %s\n", id, done)
			return nil
		},
	}
}

// ndaRows renders agreements one per row.
type ndaRows []domain.Nda

func (l ndaRows) Table(wide bool) *output.Table {
	headers := []string{"NDA ID", "STATUS", "RECIPIENT", "CREATED"}
	if wide {
		headers = append(headers, "TEMPLATE", "URL")
	}
	t := output.NewTable(headers...)
	for _, n := range l {
		row := []string{n.NdaID, string(n.Metadata.Status), partyName(n.Metadata.Recipient), formatTime(n.CreatedAt)}
		if wide {
			row = append(row, orDash(n.Metadata.NdaTemplateID), n.ViewURL())
		}
		t.AddRow(row...)
	}
	return t
}

type ndaView struct{ *domain.Nda }

func (v ndaView) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("NDA ID", v.NdaID)
	t.AddRow("Status", string(v.Metadata.Status))
	t.AddRow("Sender", partyName(v.Metadata.Sender))
	t.AddRow("Recipient", partyName(v.Metadata.Recipient))
	t.AddRow("Template", orDash(v.Metadata.NdaTemplateID))
	t.AddRow("Created", formatTime(v.CreatedAt))
	t.AddRow("Updated", formatTime(v.UpdatedAt))
	t.AddRow("URL", v.ViewURL())
	return t
}

func partyName(p domain.Party) string {
	switch {
	case p.FullName != "" && p.Email != "":
		return p.FullName + " <" + p.Email + ">"
	case p.Email != "":
		return p.Email
	default:
		return orDash(p.FullName)
	}
}
