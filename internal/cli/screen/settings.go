package screen

import (
	"context"
	"fmt"
	"io"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/core/service"
)

// SettingsProps is what the settings initializer resolves to.
type SettingsProps struct {
	User   *domain.User
	APIKey string
}

type settings struct{ env *Env }

func (s *settings) Name() string { return RouteSettings }

func (s *settings) Init() router.Initializer {
	return func(ctx context.Context) (any, error) {
		user, err := s.env.Client.Session(ctx)
		if err != nil {
			return nil, err
		}
		key, err := s.env.Client.CurrentAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		return &SettingsProps{User: user, APIKey: key}, nil
	}
}

func (s *settings) Render(w io.Writer, st router.State) error {
	heading(w, "Settings")
	props, _ := st.Props.(*SettingsProps)
	if props == nil {
		return nil
	}
	t := output.NewTable("SETTING", "VALUE")
	if props.User != nil {
		t.AddRow("Account", props.User.DisplayName())
	}
	t.AddRow("API key", domain.MaskAPIKey(props.APIKey))
	return t.Render(w)
}

func (s *settings) Actions() []Action {
	return []Action{
		{Name: "key", Usage: "[api-key]", Help: "Replace the API key", Run: s.replaceKey},
		{Name: "keys", Help: "List the API keys of the account", Run: s.listKeys},
		{Name: "cancel", Help: "Back to home", Run: navigate(s.env, RouteHome)},
		{Name: "logout", Help: "Remove the API key", Run: s.logout},
	}
}

// replaceKey keeps the previous key when the new one is rejected.
func (s *settings) replaceKey(ctx context.Context, args []string) error {
	key, err := readKey(s.env, args)
	if err != nil {
		return err
	}
	user, err := s.env.Client.ConfigureAPIKey(ctx, key, service.RecoveryRevert)
	if err != nil {
		return fmt.Errorf("API key not saved: %s", describe(err))
	}
	s.env.printf("API key saved. Signed in as %s.\n", user.DisplayName())
	s.env.Router.Navigate(ctx, RouteHome)
	return nil
}

func (s *settings) listKeys(ctx context.Context, _ []string) error {
	keys, err := s.env.Client.APIKeys(ctx)
	if err != nil {
		return fmt.Errorf("list api keys: %s", describe(err))
	}
	return output.Print(s.env.Out, output.FormatTable, keys)
}

func (s *settings) logout(ctx context.Context, _ []string) error {
	if err := s.env.Client.Logout(ctx); err != nil {
		return err
	}
	s.env.Router.Navigate(ctx, RouteGreeting)
	return nil
}
