package screen

import (
	"fmt"
	"io"

	"github.com/yndnr/ndaify-go/internal/cli/router"
)

type greeting struct{ env *Env }

func (g *greeting) Name() string             { return RouteGreeting }
func (g *greeting) Init() router.Initializer { return nil }

func (g *greeting) Render(w io.Writer, _ router.State) error {
	heading(w, "Welcome to NDAify")
	_, err := fmt.Fprintln(w, "You can use NDAify to easily send nondisclosure agreements to email addresses.\n\nType 'start' to get started.")
	return err
}

func (g *greeting) Actions() []Action {
	return []Action{
		{Name: "start", Help: "Set up your NDAify account", Run: navigate(g.env, RouteWizard)},
	}
}

type sessionError struct{ env *Env }

func (s *sessionError) Name() string             { return RouteSessionError }
func (s *sessionError) Init() router.Initializer { return nil }

func (s *sessionError) Render(w io.Writer, _ router.State) error {
	heading(w, "Invalid API Key")
	_, err := fmt.Fprintln(w, "Your API key is no longer valid. You must reconfigure the client before you can continue.\n\nType 'reconfigure' to enter a new key.")
	return err
}

func (s *sessionError) Actions() []Action {
	return []Action{
		{Name: "reconfigure", Help: "Enter a new API key", Run: navigate(s.env, RouteWizard)},
	}
}

// loading is the reserved Loading screen.
type loading struct{}

func (loading) Name() string             { return router.RouteLoading }
func (loading) Init() router.Initializer { return nil }
func (loading) Actions() []Action        { return nil }

func (loading) Render(w io.Writer, _ router.State) error {
	_, err := fmt.Fprintln(w, "Loading...")
	return err
}

// failure is the reserved Error screen.
type failure struct{ env *Env }

func (f *failure) Name() string             { return router.RouteError }
func (f *failure) Init() router.Initializer { return nil }

func (f *failure) Render(w io.Writer, st router.State) error {
	heading(w, "Something went wrong")
	if st.Err != nil {
		fmt.Fprintln(w, describe(st.Err))
	}
	_, err := fmt.Fprintln(w, "\nType 'retry' to load the home screen again or 'settings' to check your API key.")
	return err
}

func (f *failure) Actions() []Action {
	return []Action{
		{Name: "retry", Help: "Load the home screen again", Run: navigate(f.env, RouteHome)},
		{Name: "settings", Help: "Open settings", Run: navigate(f.env, RouteSettings)},
	}
}
