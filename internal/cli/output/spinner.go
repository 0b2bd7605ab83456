package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner displays a progress animation on a terminal. When animation is
// disabled it prints the message once instead.
type Spinner struct {
	w        io.Writer
	message  string
	frames   []string
	interval time.Duration
	animate  bool

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewSpinner creates a new spinner. animate should be false when w is not
// a terminal.
func NewSpinner(w io.Writer, message string, animate bool) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
		animate:  animate,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start starts the spinner. Calling it twice has no effect.
func (s *Spinner) Start() {
	s.startOnce.Do(func() {
		if !s.animate {
			fmt.Fprintf(s.w, "%s...\n", s.message)
			close(s.stopped)
			return
		}
		go s.run()
	})
}

func (s *Spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// Stop stops the spinner and clears the line. It is safe to call more
// than once and without Start.
func (s *Spinner) Stop() {
	s.finish("")
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.finish("✓ " + message)
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.finish("✗ " + message)
}

func (s *Spinner) finish(line string) {
	s.stopOnce.Do(func() {
		// A spinner that never started has nothing to wait for.
		s.startOnce.Do(func() { close(s.stopped) })
		close(s.done)
		<-s.stopped
		if s.animate {
			fmt.Fprint(s.w, "\r\033[K")
		}
		if line != "" {
			fmt.Fprintln(s.w, line)
		}
	})
}
