package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/core/service"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

// Route names.
const (
	RouteGreeting     = "greeting"
	RouteWizard       = "wizard"
	RouteHome         = "home"
	RouteSettings     = "settings"
	RouteSessionError = "sessionError"
)

// Links shown by the wizard.
const (
	SignUpURL  = "https://ndaify.com/login"
	APIKeysURL = "https://ndaify.com/dev/keys"
)

// ErrUnknownAction is returned for input no action matches.
var ErrUnknownAction = errors.New("unknown action")

// SecretReader reads a value without echoing it.
type SecretReader interface {
	ReadSecret(prompt string) (string, error)
}

// Env is what screens need from the shell.
type Env struct {
	Client *service.Client
	Router *router.Router
	// Out receives action feedback. Rendering goes to the writer passed
	// to Render.
	Out     io.Writer
	Secrets SecretReader
	// OpenURL opens a link. Nil prints it to Out.
	OpenURL func(url string) error
	// TransitionDelay is how long the wizard shows Loading before home.
	TransitionDelay time.Duration
	// PageSize is how many NDAs home lists per page. 0 means DefaultPageSize.
	PageSize int
	Log      logger.Logger
}

// DefaultPageSize is the home page size when Env.PageSize is unset.
const DefaultPageSize = 20

func (e *Env) logger() logger.Logger {
	if e.Log == nil {
		return logger.Default()
	}
	return e.Log
}

func (e *Env) pageSize() int {
	if e.PageSize > 0 {
		return e.PageSize
	}
	return DefaultPageSize
}

func (e *Env) open(url string) error {
	if e.OpenURL != nil {
		return e.OpenURL(url)
	}
	_, err := fmt.Fprintln(e.Out, url)
	return err
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// Action is a named screen command.
type Action struct {
	Name  string
	Usage string
	Help  string
	Run   func(ctx context.Context, args []string) error
}

// Screen is one route of the shell.
type Screen interface {
	Name() string
	// Init returns the route initializer, or nil.
	Init() router.Initializer
	Render(w io.Writer, st router.State) error
	Actions() []Action
}

// Set holds every screen by route name, including the reserved Loading and
// Error screens.
type Set struct {
	env     *Env
	screens map[string]Screen
}

// NewSet creates all screens bound to env.
func NewSet(env *Env) *Set {
	s := &Set{env: env, screens: make(map[string]Screen)}
	for _, sc := range []Screen{
		&greeting{env: env},
		&wizard{env: env},
		newHome(env),
		&settings{env: env},
		&sessionError{env: env},
		&loading{},
		&failure{env: env},
	} {
		s.screens[sc.Name()] = sc
	}
	return s
}

// Register adds every non-reserved screen to r.
func (s *Set) Register(r *router.Router) error {
	for name, sc := range s.screens {
		if isReserved(name) {
			continue
		}
		if err := r.Register(name, router.Route{Init: sc.Init()}); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}

// Get returns the screen for a route.
func (s *Set) Get(route string) (Screen, bool) {
	sc, ok := s.screens[route]
	return sc, ok
}

// Names returns the registered route names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.screens))
	for name := range s.screens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitialRoute is home when a key is stored and greeting otherwise.
func (s *Set) InitialRoute(ctx context.Context) (string, error) {
	ok, err := s.env.Client.HasAPIKey(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return RouteHome, nil
	}
	return RouteGreeting, nil
}

// Render renders the screen of st.
func (s *Set) Render(w io.Writer, st router.State) error {
	sc, ok := s.Get(st.Route)
	if !ok {
		_, err := fmt.Fprintf(w, "Unknown screen %q\n", st.Route)
		return err
	}
	return sc.Render(w, st)
}

// Dispatch runs the action of the screen of st named by the first word of
// line.
func (s *Set) Dispatch(ctx context.Context, st router.State, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	sc, ok := s.Get(st.Route)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, fields[0])
	}
	for _, a := range sc.Actions() {
		if a.Name == fields[0] {
			return a.Run(ctx, fields[1:])
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, fields[0])
}

// ActionNames lists the actions of the screen of route.
func (s *Set) ActionNames(route string) []string {
	sc, ok := s.Get(route)
	if !ok {
		return nil
	}
	var names []string
	for _, a := range sc.Actions() {
		names = append(names, a.Name)
	}
	return names
}

// WriteHelp prints the actions of the screen of route.
func (s *Set) WriteHelp(w io.Writer, route string) {
	sc, ok := s.Get(route)
	if !ok {
		return
	}
	for _, a := range sc.Actions() {
		usage := a.Name
		if a.Usage != "" {
			usage += " " + a.Usage
		}
		fmt.Fprintf(w, "  %-24s %s\n", usage, a.Help)
	}
}

func isReserved(route string) bool {
	return route == router.RouteInit || route == router.RouteLoading || route == router.RouteError
}

// navigate is the action body of a plain route change.
func navigate(env *Env, route string) func(ctx context.Context, _ []string) error {
	return func(ctx context.Context, _ []string) error {
		env.Router.Navigate(ctx, route)
		return nil
	}
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
}
