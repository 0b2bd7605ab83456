package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/cli/screen"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

// Prompt is printed before each input line.
const Prompt = "ndaify> "

// ErrNoTerminal is returned when a secret is requested without a TTY.
var ErrNoTerminal = errors.New("no terminal to read the key from; pass it as an argument")

// Config configures a REPL.
type Config struct {
	In      io.Reader
	Out     io.Writer
	Screens *screen.Set
	Router  *router.Router
	Bus     *router.Bus
	History *History
	// PollInterval refreshes the home screen periodically; 0 disables it.
	PollInterval time.Duration
	// Animate enables the spinner animation.
	Animate bool
	Log     logger.Logger
}

// REPL is the interactive shell loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	screens   *screen.Set
	router    *router.Router
	bus       *router.Bus
	history   *History
	completer *Completer
	poll      time.Duration
	animate   bool
	log       logger.Logger

	mu      sync.Mutex
	spinner *output.Spinner
}

// New creates a REPL. Out is wrapped with SyncWriter so renders from
// router goroutines do not interleave with action output.
func New(cfg Config) *REPL {
	in := cfg.In
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Out
	if out == nil {
		out = SyncWriter(os.Stdout)
	} else if _, ok := out.(*syncWriter); !ok {
		out = SyncWriter(out)
	}
	history := cfg.History
	if history == nil {
		history = NewHistory("")
	}
	log := cfg.Log
	if log == nil {
		log = logger.Default()
	}

	r := &REPL{
		input:   in,
		output:  out,
		screens: cfg.Screens,
		router:  cfg.Router,
		bus:     cfg.Bus,
		history: history,
		poll:    cfg.PollInterval,
		animate: cfg.Animate,
		log:     log.With("component", "repl"),
	}
	r.completer = NewCompleter(func() []string {
		return r.screens.ActionNames(r.router.State().Route)
	})
	return r
}

// Run mounts the router on the initial route and processes input until
// exit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	initial, err := r.screens.InitialRoute(ctx)
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}

	remove := r.router.OnChange(r.render)
	defer remove()
	if err := r.router.Mount(ctx, r.bus, initial); err != nil {
		return err
	}
	defer func() {
		r.router.Unmount()
		r.router.Wait()
		r.stopSpinner()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	next := make(chan struct{}, 1)
	lines := make(chan string)
	errc := make(chan error, 1)
	go r.readLines(ctx, next, lines, errc)

	var poll <-chan time.Time
	if r.poll > 0 {
		ticker := time.NewTicker(r.poll)
		defer ticker.Stop()
		poll = ticker.C
	}

	r.prompt(next)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.output)
			return nil
		case err := <-errc:
			fmt.Fprintln(r.output)
			return err
		case <-poll:
			r.refresh(ctx)
		case line := <-lines:
			if r.handle(ctx, line) {
				return nil
			}
			r.prompt(next)
		}
	}
}

// readLines reads one line per token received on next, so nothing reads
// the input while an action prompts for a secret. It returns once ctx is
// done, except while blocked in Scan: a read cannot be interrupted, so the
// goroutine then lingers until the input yields a line or is closed. Run
// does not wait for it. The line read in that window is dropped.
func (r *REPL) readLines(ctx context.Context, next <-chan struct{}, lines chan<- string, errc chan<- error) {
	scanner := bufio.NewScanner(r.input)
	for {
		select {
		case <-ctx.Done():
			return
		case <-next:
		}
		if !scanner.Scan() {
			errc <- scanner.Err()
			return
		}
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

func (r *REPL) prompt(next chan<- struct{}) {
	fmt.Fprint(r.output, Prompt)
	select {
	case next <- struct{}{}:
	default:
	}
}

// handle runs one input line and reports whether the shell should exit.
func (r *REPL) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	r.history.Add(line)

	fields := strings.Fields(line)
	switch matches := r.completer.Complete(fields[0]); {
	case len(matches) == 1:
		fields[0] = matches[0]
	case len(matches) > 1 && !slices.Contains(matches, fields[0]):
		fmt.Fprintf(r.output, "Ambiguous command %q: %s\n", fields[0], strings.Join(matches, ", "))
		return false
	}
	line = strings.Join(fields, " ")

	switch fields[0] {
	case "exit", "quit":
		return true
	case "help":
		r.help()
		return false
	case "history":
		var b strings.Builder
		for i, e := range r.history.Entries() {
			fmt.Fprintf(&b, "%4d  %s\n", i+1, e)
		}
		io.WriteString(r.output, b.String())
		return false
	}

	st := r.router.State()
	err := r.screens.Dispatch(ctx, st, line)
	switch {
	case err == nil:
	case errors.Is(err, screen.ErrUnknownAction):
		fmt.Fprintf(r.output, "Unknown command %q. Type 'help' for the available commands.\n", fields[0])
	default:
		r.log.Debug("action failed", "route", st.Route, "error", err)
		fmt.Fprintf(r.output, "Error: %s\n", domain.UserMessage(err))
	}
	return false
}

func (r *REPL) help() {
	var buf bytes.Buffer
	buf.WriteString("Commands:\n")
	r.screens.WriteHelp(&buf, r.router.State().Route)
	fmt.Fprintf(&buf, "  %-24s %s\n", "help", "Show this help")
	fmt.Fprintf(&buf, "  %-24s %s\n", "history", "Show previous input")
	fmt.Fprintf(&buf, "  %-24s %s\n", "exit", "Leave the shell")
	r.output.Write(buf.Bytes())
}

// refresh reloads the home screen when it is showing.
func (r *REPL) refresh(ctx context.Context) {
	st := r.router.State()
	if st.Route != screen.RouteHome {
		return
	}
	if err := r.screens.Dispatch(ctx, st, "refresh"); err != nil {
		r.log.Debug("poll refresh failed", "error", err)
	}
}

// render is the router listener.
func (r *REPL) render(st router.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.Route == router.RouteLoading {
		if r.spinner == nil {
			r.spinner = output.NewSpinner(r.output, "Loading", r.animate)
			r.spinner.Start()
		}
		return
	}
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}

	var buf bytes.Buffer
	if err := r.screens.Render(&buf, st); err != nil {
		r.log.Warn("render failed", "route", st.Route, "error", err)
		return
	}
	r.output.Write(buf.Bytes())
}

func (r *REPL) stopSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// SyncWriter serializes writes to w.
func SyncWriter(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// TerminalSecrets reads secrets from a terminal without echo.
type TerminalSecrets struct {
	In  *os.File
	Out io.Writer
}

// ReadSecret implements screen.SecretReader.
func (t TerminalSecrets) ReadSecret(prompt string) (string, error) {
	fd := int(t.In.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}
	fmt.Fprint(t.Out, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(t.Out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
