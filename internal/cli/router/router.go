package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

// Reserved routes.
const (
	RouteInit    = "$init"
	RouteLoading = "$loading"
	RouteError   = "$error"
)

var (
	// ErrReservedRoute is returned when registering a reserved name.
	ErrReservedRoute = errors.New("route name is reserved")

	// ErrAlreadyMounted is returned by a second Mount.
	ErrAlreadyMounted = errors.New("router already mounted")
)

// Initializer loads the props of a route. ctx is cancelled when a newer
// navigation supersedes this one.
type Initializer func(ctx context.Context) (any, error)

// Route describes a registered screen.
type Route struct {
	// Init is optional. Without it the route is committed synchronously.
	Init Initializer
}

// State is the committed router state.
type State struct {
	Route string
	// Props is what the route initializer returned, nil otherwise.
	Props any
	// Err is set in the Error state.
	Err error
	// Ticket is the navigation that produced the state.
	Ticket uint64
}

// Router is the state router. It is safe for concurrent use.
type Router struct {
	mu      sync.Mutex
	routes  map[string]Route
	state   State
	ticket  uint64
	version uint64
	cancel  context.CancelFunc

	// notifyMu serializes listener calls; delivered is the newest
	// version handed to listeners.
	notifyMu  sync.Mutex
	delivered uint64
	listeners map[int]func(State)
	nextID    int

	mounted     bool
	unsubscribe func()

	inflight sync.WaitGroup
	log      logger.Logger
	metrics  *metric.Registry
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a Router in the Init state.
func New(opts ...Option) *Router {
	r := &Router{
		routes:    make(map[string]Route),
		state:     State{Route: RouteInit},
		listeners: make(map[int]func(State)),
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "router")
	return r
}

// Register adds or replaces a route.
func (r *Router) Register(name string, route Route) error {
	switch name {
	case "":
		return errors.New("route name is empty")
	case RouteInit, RouteLoading, RouteError:
		return fmt.Errorf("%w: %s", ErrReservedRoute, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[name] = route
	return nil
}

// State returns the committed state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnChange registers fn for every committed state. fn runs on the
// committing goroutine and must not call Navigate.
func (r *Router) OnChange(fn func(State)) (remove func()) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return func() {
		r.notifyMu.Lock()
		defer r.notifyMu.Unlock()
		delete(r.listeners, id)
	}
}

// Navigate switches to name and returns the ticket of the navigation.
//
// Without an initializer the route is committed before Navigate returns.
// Otherwise Loading is committed before Navigate returns and the
// initializer runs on a new goroutine whose context derives from ctx.
// Any initializer still running for an older ticket is cancelled and its
// result discarded.
func (r *Router) Navigate(ctx context.Context, name string) uint64 {
	r.metrics.ObserveNavigation(name)

	r.mu.Lock()
	r.ticket++
	ticket := r.ticket
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	route, ok := r.routes[name]
	if !ok || route.Init == nil {
		st := r.commitLocked(State{Route: name, Ticket: ticket})
		r.mu.Unlock()
		r.log.Debug("navigated", "route", name, "ticket", ticket)
		r.notify(st)
		return ticket
	}

	initCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	st := r.commitLocked(State{Route: RouteLoading, Ticket: ticket})
	r.inflight.Add(1)
	r.mu.Unlock()

	r.log.Debug("loading route", "route", name, "ticket", ticket)
	r.notify(st)

	go func() {
		defer r.inflight.Done()
		defer cancel()
		props, err := route.Init(initCtx)
		if err != nil {
			r.finish(name, ticket, State{Route: RouteError, Err: err, Ticket: ticket})
			return
		}
		r.finish(name, ticket, State{Route: name, Props: props, Ticket: ticket})
	}()
	return ticket
}

// finish commits the initializer result if ticket is still current.
func (r *Router) finish(name string, ticket uint64, next State) {
	r.mu.Lock()
	if r.ticket != ticket {
		current := r.ticket
		r.mu.Unlock()
		r.metrics.ObserveStaleResult(name)
		r.log.Debug("discarding stale route result", "route", name,
			"ticket", ticket, "current", current, "failed", next.Err != nil)
		return
	}
	r.cancel = nil
	st := r.commitLocked(next)
	r.mu.Unlock()

	if next.Err != nil {
		r.log.Warn("route initializer failed", "route", name, "error", next.Err)
	} else {
		r.log.Debug("route committed", "route", name, "ticket", ticket)
	}
	r.notify(st)
}

type versioned struct {
	State
	version uint64
}

func (r *Router) commitLocked(st State) versioned {
	r.version++
	r.state = st
	return versioned{State: st, version: r.version}
}

// notify hands st to listeners unless a newer state was delivered
// already.
func (r *Router) notify(st versioned) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	if st.version <= r.delivered {
		return
	}
	r.delivered = st.version
	for _, fn := range r.listeners {
		fn(st.State)
	}
}

// Mount subscribes to bus and then performs the initial navigation, so a
// redirect raised while the first route loads is not lost. It can be
// called once.
func (r *Router) Mount(ctx context.Context, bus *Bus, initial string) error {
	r.mu.Lock()
	if r.mounted {
		r.mu.Unlock()
		return ErrAlreadyMounted
	}
	r.mounted = true
	r.mu.Unlock()

	if bus != nil {
		unsubscribe := bus.Subscribe(func(route string) {
			r.log.Debug("redirect requested", "route", route)
			r.Navigate(ctx, route)
		})
		r.mu.Lock()
		r.unsubscribe = unsubscribe
		r.mu.Unlock()
	}

	r.Navigate(ctx, initial)
	return nil
}

// Unmount leaves the bus and cancels the running initializer.
func (r *Router) Unmount() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	if r.cancel != nil {
		// Retire the ticket so the cancelled result is discarded.
		r.ticket++
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Wait blocks until no initializer is running.
func (r *Router) Wait() {
	r.inflight.Wait()
}
