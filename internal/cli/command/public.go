package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// PaymentCommand returns the payment subcommand group.
func PaymentCommand() *cli.Command {
	return &cli.Command{
		Name:  "payment",
		Usage: "Payments",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a payment intent",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "amount", Aliases: []string{"a"}, Usage: "Amount in the smallest currency unit", Required: true},
					&cli.StringFlag{Name: "currency", Usage: "ISO currency code", Value: "usd"},
				},
				Action: paymentCreate,
			},
		},
	}
}

func paymentCreate(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	intent, err := client.CreatePaymentIntent(c.Context, domain.PaymentIntentRequest{
		Amount:   c.Int64("amount"),
		Currency: strings.ToLower(c.String("currency")),
	})
	if err != nil {
		return err
	}
	return rt.Print(intent)
}

// TemplateCommand returns the template subcommand group.
func TemplateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "NDA templates",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a rendered template",
				ArgsUsage: "OWNER/REPO/REF/PATH",
				Action:    templateGet,
			},
		},
	}
}

func templateGet(c *cli.Context) error {
	id, err := requireArg(c, "template id")
	if err != nil {
		return err
	}
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	tpl, err := client.GetNdaTemplate(c.Context, id)
	if err != nil {
		return err
	}
	if rt.Format == output.FormatTable {
		_, err := fmt.Fprintln(rt.Out, tpl.Data)
		return err
	}
	return rt.Print(tpl)
}

// OpenAPICommand prints the OpenAPI document of the service.
func OpenAPICommand() *cli.Command {
	return &cli.Command{
		Name:  "openapi",
		Usage: "Print the OpenAPI document of the API",
		Action: func(c *cli.Context) error {
			rt, client, err := clientFrom(c)
			if err != nil {
				return err
			}
			doc, err := client.GetOpenAPISpec(c.Context)
			if err != nil {
				return err
			}
			return rt.Print(doc)
		},
	}
}

// StatsCommand prints public service statistics.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show NDAify statistics",
		Action: func(c *cli.Context) error {
			rt, client, err := clientFrom(c)
			if err != nil {
				return err
			}
			stats, err := client.GetNdaStatistics(c.Context)
			if err != nil {
				return err
			}
			return rt.Print(stats)
		},
	}
}
