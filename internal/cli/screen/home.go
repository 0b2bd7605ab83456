package screen

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/core/service"
)

// HomeProps is what the home initializer resolves to.
type HomeProps struct {
	User *domain.User
	Ndas []domain.Nda
}

type home struct {
	env *Env

	mu     sync.Mutex
	filter []domain.NdaStatus
	page   int // zero-based
}

func newHome(env *Env) *home {
	return &home{env: env}
}

func (h *home) Name() string { return RouteHome }

// Init loads the session and the agreements concurrently.
func (h *home) Init() router.Initializer {
	return func(ctx context.Context) (any, error) {
		var props HomeProps
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			u, err := h.env.Client.Session(gctx)
			props.User = u
			return err
		})
		g.Go(func() error {
			ndas, err := h.env.Client.Ndas(gctx)
			props.Ndas = ndas
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &props, nil
	}
}

func (h *home) statusFilter() []domain.NdaStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.NdaStatus(nil), h.filter...)
}

// visible returns the agreements shown for the current filter.
func (h *home) visible(st router.State) []domain.Nda {
	props, ok := st.Props.(*HomeProps)
	if !ok || props == nil {
		return nil
	}
	return domain.FilterNdasByStatus(props.Ndas, h.statusFilter()...)
}

// pageOf returns the current page clamped to the number of pages, the page
// count, and the bounds of that page in a list of n agreements.
func (h *home) pageOf(n int) (page, pages, start, end int) {
	size := h.env.pageSize()
	pages = (n + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	h.mu.Lock()
	page = min(h.page, pages-1)
	h.mu.Unlock()
	start = page * size
	end = min(start+size, n)
	return page, pages, start, end
}

func (h *home) Render(w io.Writer, st router.State) error {
	props, _ := st.Props.(*HomeProps)
	title := "NDAify"
	if props != nil && props.User != nil {
		title = "NDAify: " + props.User.DisplayName()
	}
	heading(w, title)

	ndas := h.visible(st)
	if f := h.statusFilter(); len(f) > 0 {
		parts := make([]string, len(f))
		for i, s := range f {
			parts[i] = string(s)
		}
		fmt.Fprintf(w, "Showing: %s\n", strings.Join(parts, ", "))
	}
	if len(ndas) == 0 {
		_, err := fmt.Fprintln(w, "No NDAs yet.")
		return err
	}

	page, pages, start, end := h.pageOf(len(ndas))
	t := output.NewTable("#", "NDA ID", "STATUS", "RECIPIENT", "CREATED")
	for i := start; i < end; i++ {
		n := ndas[i]
		recipient := n.Metadata.Recipient.Email
		if n.Metadata.Recipient.FullName != "" {
			recipient = n.Metadata.Recipient.FullName + " <" + recipient + ">"
		}
		created := "-"
		if !n.CreatedAt.IsZero() {
			created = n.CreatedAt.Local().Format(output.TimeLayout)
		}
		t.AddRow(strconv.Itoa(i+1), n.NdaID, string(n.Metadata.Status), recipient, created)
	}
	if err := t.Render(w); err != nil {
		return err
	}
	if pages > 1 {
		_, err := fmt.Fprintf(w, "Page %d of %d\n", page+1, pages)
		return err
	}
	return nil
}

func (h *home) Actions() []Action {
	return []Action{
		{Name: "filter", Usage: "[status...]", Help: "Show only NDAs with these statuses", Run: h.setFilter},
		{Name: "page", Usage: "<n|next|prev>", Help: "Show another page of NDAs", Run: h.setPage},
		{Name: "view", Usage: "<n|nda-id>", Help: "Open an NDA in the browser", Run: h.view},
		{Name: "resend", Usage: "<n|nda-id>", Help: "Resend a pending NDA", Run: h.resend},
		{Name: "revoke", Usage: "<n|nda-id>", Help: "Revoke a pending NDA", Run: h.revoke},
		{Name: "refresh", Help: "Reload NDAs", Run: h.refresh},
		{Name: "settings", Help: "Open settings", Run: navigate(h.env, RouteSettings)},
		{Name: "logout", Help: "Remove the API key", Run: h.logout},
	}
}

func (h *home) setFilter(ctx context.Context, args []string) error {
	statuses := make([]domain.NdaStatus, 0, len(args))
	for _, a := range args {
		s, err := domain.ParseNdaStatus(a)
		if err != nil {
			return err
		}
		statuses = append(statuses, s)
	}
	h.mu.Lock()
	h.filter = statuses
	h.page = 0
	h.mu.Unlock()
	h.env.Router.Navigate(ctx, RouteHome)
	return nil
}

func (h *home) setPage(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("page: %w", domain.ErrMissingArgument)
	}
	current, pages, _, _ := h.pageOf(len(h.visible(h.env.Router.State())))
	target := current
	switch args[0] {
	case "next":
		target++
	case "prev":
		target--
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("page: %q is not a number", args[0])
		}
		target = n - 1
	}
	if target < 0 || target >= pages {
		return fmt.Errorf("no page %d, there are %d", target+1, pages)
	}
	h.mu.Lock()
	h.page = target
	h.mu.Unlock()
	h.env.Router.Navigate(ctx, RouteHome)
	return nil
}

// pick resolves a row number of the visible list or an agreement id.
func (h *home) pick(args []string) (*domain.Nda, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("nda: %w", domain.ErrMissingArgument)
	}
	ndas := h.visible(h.env.Router.State())
	if i, err := strconv.Atoi(args[0]); err == nil {
		if i < 1 || i > len(ndas) {
			return nil, fmt.Errorf("no NDA at row %d", i)
		}
		return &ndas[i-1], nil
	}
	for i := range ndas {
		if ndas[i].NdaID == args[0] {
			return &ndas[i], nil
		}
	}
	return nil, fmt.Errorf("unknown NDA %q", args[0])
}

func (h *home) view(_ context.Context, args []string) error {
	n, err := h.pick(args)
	if err != nil {
		return err
	}
	return h.env.open(n.ViewURL())
}

func (h *home) resend(ctx context.Context, args []string) error {
	return h.pendingAction(ctx, args, "resend", h.env.Client.ResendNda)
}

func (h *home) revoke(ctx context.Context, args []string) error {
	return h.pendingAction(ctx, args, "revoke", h.env.Client.RevokeNda)
}

func (h *home) pendingAction(ctx context.Context, args []string, verb string, do func(context.Context, string) error) error {
	n, err := h.pick(args)
	if err != nil {
		return err
	}
	if !n.IsPending() {
		return fmt.Errorf("only pending NDAs can be %s", pastTense(verb))
	}
	if err := do(ctx, n.NdaID); err != nil {
		h.env.logger().Warn("nda action failed", "action", verb, "nda_id", n.NdaID, "error", err)
		return fmt.Errorf("failed to %s NDA: %s", verb, describe(err))
	}
	h.env.printf("Successfully %s NDA\n", pastTense(verb))
	h.env.Router.Navigate(ctx, RouteHome)
	return nil
}

func pastTense(verb string) string {
	if strings.HasSuffix(verb, "e") {
		return verb + "d"
	}
	return verb + "ed"
}

func (h *home) refresh(ctx context.Context, _ []string) error {
	h.env.Client.Caches().Default().Invalidate(service.KeyNdas)
	h.env.Router.Navigate(ctx, RouteHome)
	return nil
}

func (h *home) logout(ctx context.Context, _ []string) error {
	if err := h.env.Client.Logout(ctx); err != nil {
		return err
	}
	h.env.Router.Navigate(ctx, RouteGreeting)
	return nil
}
