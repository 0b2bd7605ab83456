package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
)

const testKey = "sk_test_0123456789"

// mockServer is a fake NDAify API. Handlers are matched by the longest
// registered path prefix.
type mockServer struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []string
}

func newMockServer() *mockServer {
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Method+" "+r.URL.RequestURI())
		var best string
		for pattern := range m.handlers {
			if strings.HasPrefix(r.URL.Path, pattern) && len(pattern) > len(best) {
				best = pattern
			}
		}
		handler := m.handlers[best]
		m.mu.Unlock()

		if handler == nil {
			errorResponse(w, http.StatusNotFound, "")
			return
		}
		handler(w, r)
	}))
	return m
}

func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

// authed wraps handler with the API key check of the real service.
func (m *mockServer) authed(pattern string, handler http.HandlerFunc) {
	m.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != connection.AuthScheme+" "+testKey {
			errorResponse(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		handler(w, r)
	})
}

func (m *mockServer) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	body := map[string]string{}
	if message != "" {
		body["errorMessage"] = message
	}
	jsonResponse(w, status, body)
}

// testEnv runs the CLI against a mock server with an isolated store.
type testEnv struct {
	server *mockServer
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := newMockServer()
	t.Cleanup(srv.Close)
	srv.authed("/sessions", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"user": map[string]any{
			"userId":   "u-1",
			"metadata": map[string]any{"linkedInProfile": map[string]any{"firstName": "Grace", "lastName": "Hopper", "emailAddress": "grace@example.com"}},
		}})
	})
	return &testEnv{server: srv, dir: t.TempDir()}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)

	full := []string{"ndaify",
		"--config", filepath.Join(e.dir, "cli.yaml"),
		"--store-dir", filepath.Join(e.dir, "store"),
		"--base-url", e.server.URL,
		"--log-level", "error",
	}
	err := app.Run(append(full, args...))
	if err != nil {
		PrintError(&stderr, err)
	}
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// login stores testKey through the CLI.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	if res := e.run(t, "", "config", "set-key", testKey); res.err != nil {
		t.Fatalf("set-key failed: %v\n%s", res.err, res.stderr)
	}
}

