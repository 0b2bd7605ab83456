package screen

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/core/service"
)

type wizard struct{ env *Env }

func (z *wizard) Name() string             { return RouteWizard }
func (z *wizard) Init() router.Initializer { return nil }

func (z *wizard) Render(w io.Writer, _ router.State) error {
	heading(w, "Set up your NDAify account")
	_, err := fmt.Fprintf(w, `To use this client, you need an NDAify account.

  1. Sign up or log in to NDAify: %s
  2. Create an API key at %s and save it with 'key'.
`, SignUpURL, APIKeysURL)
	return err
}

func (z *wizard) Actions() []Action {
	return []Action{
		{Name: "key", Usage: "[api-key]", Help: "Verify and save your API key", Run: z.saveKey},
		{Name: "signup", Help: "Open the sign-up page", Run: func(context.Context, []string) error { return z.env.open(SignUpURL) }},
		{Name: "back", Help: "Back to the welcome screen", Run: navigate(z.env, RouteGreeting)},
	}
}

// saveKey probes the key and removes it again if it is rejected, so a
// failed first run leaves no key behind.
func (z *wizard) saveKey(ctx context.Context, args []string) error {
	key, err := readKey(z.env, args)
	if err != nil {
		return err
	}
	user, err := z.env.Client.ConfigureAPIKey(ctx, key, service.RecoveryClear)
	if err != nil {
		return fmt.Errorf("could not verify the API key: %s", describe(err))
	}

	z.env.printf("Signed in as %s.\n", user.DisplayName())
	z.env.Router.Navigate(ctx, router.RouteLoading)
	if err := sleep(ctx, z.env.TransitionDelay); err != nil {
		return err
	}
	z.env.Router.Navigate(ctx, RouteHome)
	return nil
}

func readKey(env *Env, args []string) (string, error) {
	var key string
	switch {
	case len(args) > 0:
		key = args[0]
	case env.Secrets != nil:
		var err error
		if key, err = env.Secrets.ReadSecret("API key: "); err != nil {
			return "", fmt.Errorf("read api key: %w", err)
		}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("api key: %w", domain.ErrMissingArgument)
	}
	return key, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// describe is the user-facing text of err.
func describe(err error) string {
	return domain.UserMessage(err)
}
