package router

import "sync"

// Bus carries navigation requests from non-UI code to the mounted router.
// It has at most one subscriber; subscribing replaces the previous one.
// A Bus satisfies connection.Navigator.
type Bus struct {
	mu      sync.Mutex
	handler func(route string)
	gen     uint64
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe installs fn as the only subscriber. The returned function
// removes it, unless it has been replaced already.
func (b *Bus) Subscribe(fn func(route string)) (unsubscribe func()) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.handler = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen == gen {
			b.handler = nil
		}
	}
}

// Navigate publishes route. Empty routes and requests without a
// subscriber are dropped.
func (b *Bus) Navigate(route string) {
	if route == "" {
		return
	}
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h(route)
	}
}

// Subscribed reports whether a subscriber is installed.
func (b *Bus) Subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler != nil
}
