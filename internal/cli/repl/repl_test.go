package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/cli/screen"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/core/service"
	"github.com/yndnr/ndaify-go/internal/storage"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

type stubAPI struct {
	ndaCalls atomic.Int32
}

func (s *stubAPI) Send(_ context.Context, req connection.Request, cred connection.Credential, _ any) (json.RawMessage, error) {
	if !cred.Valid() {
		return nil, domain.NewServiceError(domain.KindInvalidSession, domain.MsgMissingSession, 401, nil)
	}
	switch req.Operation {
	case "getSession", "tryGetSession":
		return json.RawMessage(`{"user":{"userId":"u1"}}`), nil
	case "getNdas":
		s.ndaCalls.Add(1)
		return json.RawMessage(`{"ndas":[{"ndaId":"n1","metadata":{"status":"pending","recipient":{"email":"ann@example.com"}}}]}`), nil
	}
	return nil, domain.NewServiceError(domain.KindNotFound, "", 404, nil)
}

// lockedBuffer is read by the test while the shell writes to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestREPL(t *testing.T, key string, in io.Reader, poll time.Duration) (*REPL, *lockedBuffer, *stubAPI) {
	t.Helper()
	api := &stubAPI{}
	settings := storage.NewSettings(storage.NewMemoryStore())
	if key != "" {
		if err := settings.SetAPIKey(context.Background(), key); err != nil {
			t.Fatal(err)
		}
	}
	out := &lockedBuffer{}
	r := router.New(router.WithLogger(logger.NewNop()))
	set := screen.NewSet(&screen.Env{
		Client: service.NewClient(api, settings, service.WithLogger(logger.NewNop())),
		Router: r,
		Out:    out,
		Log:    logger.NewNop(),
	})
	if err := set.Register(r); err != nil {
		t.Fatal(err)
	}
	return New(Config{
		In:           in,
		Out:          out,
		Screens:      set,
		Router:       r,
		Bus:          router.NewBus(),
		PollInterval: poll,
		Log:          logger.NewNop(),
	}), out, api
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out, _ := newTestREPL(t, "", strings.NewReader(tt.input), 0)
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
			if !strings.Contains(out.String(), "Welcome to NDAify") {
				t.Errorf("greeting not rendered:\n%s", out.String())
			}
		})
	}
}

func TestREPL_HomeWithKey(t *testing.T) {
	pr, pw := io.Pipe()
	r, out, _ := newTestREPL(t, "k", pr, 0)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "ann@example.com") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := io.WriteString(pw, "exit\n"); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}
	pw.Close()

	got := out.String()
	for _, want := range []string{"Loading...", "ann@example.com", "pending"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestREPL_StopsReadingAfterExit(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()

	r, _, _ := newTestREPL(t, "", pr, 0)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	if _, err := io.WriteString(pw, "exit\n"); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// Input written after Run returned belongs to the next reader.
	wrote := make(chan struct{})
	go func() {
		_, _ = io.WriteString(pw, "help\n")
		close(wrote)
	}()
	select {
	case <-wrote:
		t.Fatal("input consumed after Run returned")
	case <-time.After(50 * time.Millisecond):
	}
	pw.Close()
	<-wrote
}

func TestREPL_Commands(t *testing.T) {
	input := "help\nstart\ndance\nkey\nhistory\nexit\n"
	r, out, _ := newTestREPL(t, "", strings.NewReader(input), 0)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got := out.String()
	tests := []struct {
		name string
		want string
	}{
		{"help lists screen actions", "start"},
		{"help lists builtins", "Leave the shell"},
		{"navigates to wizard", "Set up your NDAify account"},
		{"unknown command", `Unknown command "dance"`},
		{"action error", "Error: api key: " + domain.ErrMissingArgument.Error()},
		{"history", "   2  start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(got, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestREPL_PrefixExpansion(t *testing.T) {
	r, out, _ := newTestREPL(t, "", strings.NewReader("sta\nh\nba\nexit\n"), 0)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Set up your NDAify account") {
		t.Errorf("\"sta\" did not run start:\n%s", got)
	}
	if !strings.Contains(got, `Ambiguous command "h": help, history`) {
		t.Errorf("ambiguous prefix not reported:\n%s", got)
	}
	if strings.Count(got, "Welcome to NDAify") != 2 {
		t.Errorf("\"ba\" did not go back:\n%s", got)
	}
}

func TestREPL_PollRefreshesHome(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	r, _, api := newTestREPL(t, "k", pr, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for api.ndaCalls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if n := api.ndaCalls.Load(); n < 3 {
		t.Errorf("ndas fetched %d times, want at least 3", n)
	}
}

func TestSyncWriter(t *testing.T) {
	var buf bytes.Buffer
	w := SyncWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Write([]byte("ab"))
		}()
	}
	wg.Wait()
	if buf.Len() != 100 {
		t.Errorf("wrote %d bytes, want 100", buf.Len())
	}
}
