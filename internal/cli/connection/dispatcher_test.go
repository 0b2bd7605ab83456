package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

// recordingNavigator records every requested route.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

func newTestDispatcher(t *testing.T, handler http.HandlerFunc) (*Dispatcher, *recordingNavigator, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	nav := &recordingNavigator{}
	d := NewDispatcher(Config{
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
		Navigator: nav,
		Logger:    logger.NewNop(),
		UserAgent: "ndaify-cli/test",
	})
	return d, nav, server
}

func TestDispatcher_GetSendsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	d, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ndas":[]}`))
	})

	req := Request{
		Operation: "getNdas",
		Method:    http.MethodGet,
		Path:      "ndas",
		Headers:   map[string]string{"X-Client": "shell", "Authorization": "ignored"},
	}
	body, err := d.Send(context.Background(), req, Token("key-123"), map[string]any{"status": "pending", "q": "a b", "skip": nil})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(body) != `{"ndas":[]}` {
		t.Errorf("body = %s", body)
	}

	if got.Method != http.MethodGet {
		t.Errorf("method = %q, want GET", got.Method)
	}
	if got.URL.Path != "/ndas" {
		t.Errorf("path = %q, want /ndas", got.URL.Path)
	}
	if got.URL.RawQuery != "q=a%20b&status=pending" {
		t.Errorf("query = %q", got.URL.RawQuery)
	}
	if h := got.Header.Get("Authorization"); h != "ApiKey key-123" {
		t.Errorf("Authorization = %q, caller header must not win", h)
	}
	if h := got.Header.Get("Content-Type"); h != "application/json" {
		t.Errorf("Content-Type = %q", h)
	}
	if h := got.Header.Get("X-Client"); h != "shell" {
		t.Errorf("X-Client = %q, caller headers should be sent", h)
	}
	if h := got.Header.Get("User-Agent"); h != "ndaify-cli/test" {
		t.Errorf("User-Agent = %q", h)
	}
	if h := got.Header.Get("X-Request-Id"); len(h) != 26 {
		t.Errorf("X-Request-Id = %q, want a ULID", h)
	}
}

func TestDispatcher_PostBody(t *testing.T) {
	var gotBody []byte
	var gotAuth []string
	d, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"paymentIntent":{"id":"pi_1"}}`))
	})

	payload := domain.PaymentIntentRequest{Amount: 500, Currency: "usd"}
	body, err := d.Send(context.Background(), Request{Operation: "createPaymentIntent", Method: "POST", Path: "payment-intents"}, NoSession, payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(gotBody) != `{"amount":500,"currency":"usd"}` {
		t.Errorf("request body = %s", gotBody)
	}
	if len(gotAuth) != 1 || gotAuth[0] != "" {
		t.Errorf("Authorization = %v, want one empty value for NoSession", gotAuth)
	}
	if !strings.Contains(string(body), "pi_1") {
		t.Errorf("response body = %s", body)
	}
}

func TestDispatcher_NilPayloadSendsNoBody(t *testing.T) {
	var length int64 = -2
	d, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		length = int64(len(data))
		w.WriteHeader(http.StatusAccepted)
	})

	body, err := d.Send(context.Background(), Request{Method: "DELETE", Path: "api-keys/k1"}, Token("t"), nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if length != 0 {
		t.Errorf("request body length = %d, want 0", length)
	}
	if body != nil {
		t.Errorf("empty 202 body should yield nil, got %s", body)
	}
}

func TestDispatcher_NonJSONSuccessBody(t *testing.T) {
	d, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>ok</html>"))
	})

	body, err := d.Send(context.Background(), Request{Method: "GET", Path: "static/openapi.json"}, NoSession, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if body != nil {
		t.Errorf("non-JSON body should yield nil, got %s", body)
	}
}

func TestDispatcher_StatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     domain.ErrorKind
		message  string
		redirect bool
	}{
		{"401 with message", 401, `{"errorMessage":"Token expired"}`, domain.KindInvalidSession, "Token expired", true},
		{"401 default message", 401, ``, domain.KindInvalidSession, "Invalid session token", true},
		{"403", 403, `{"errorMessage":"Not yours"}`, domain.KindForbidden, "Not yours", false},
		{"403 default", 403, `{}`, domain.KindForbidden, "Action not allowed", false},
		{"404", 404, `not json`, domain.KindNotFound, "Entity does not exist", false},
		{"400", 400, `{"errorMessage":"amount required"}`, domain.KindBadRequest, "amount required", false},
		{"500 ignores body message", 500, `{"errorMessage":"db down"}`, domain.KindUnknown, "Oops! Something went wrong. Try again later.", false},
		{"204 is not success", 204, ``, domain.KindUnknown, "Oops! Something went wrong. Try again later.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, nav, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := d.Send(context.Background(), Request{Method: "GET", Path: "ndas/x"}, Token("t"), nil)

			se, ok := domain.AsServiceError(err)
			if !ok {
				t.Fatalf("error = %v, want *ServiceError", err)
			}
			if se.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", se.Kind, tt.kind)
			}
			if se.Message != tt.message {
				t.Errorf("Message = %q, want %q", se.Message, tt.message)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if json.Valid([]byte(tt.body)) && len(tt.body) > 0 && string(se.Data) != tt.body {
				t.Errorf("Data = %s, want %s", se.Data, tt.body)
			}
			if !json.Valid([]byte(tt.body)) && se.Data != nil {
				t.Errorf("Data = %s, want nil for invalid JSON", se.Data)
			}

			routes := nav.Routes()
			if tt.redirect && (len(routes) != 1 || routes[0] != RouteSessionError) {
				t.Errorf("routes = %v, want exactly one sessionError", routes)
			}
			if !tt.redirect && len(routes) != 0 {
				t.Errorf("routes = %v, want none", routes)
			}
		})
	}
}

func TestDispatcher_NoRedirect(t *testing.T) {
	d, nav, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := d.Send(context.Background(), Request{Method: "GET", Path: "sessions", NoRedirect: true}, Token("t"), nil)
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("error = %v, want InvalidSession", err)
	}
	if routes := nav.Routes(); len(routes) != 0 {
		t.Errorf("routes = %v, want none with NoRedirect", routes)
	}
}

func TestDispatcher_MissingCredential(t *testing.T) {
	hits := 0
	d, nav, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	_, err := d.Send(context.Background(), Request{Method: "GET", Path: "sessions"}, Token(""), nil)
	se, ok := domain.AsServiceError(err)
	if !ok || se.Kind != domain.KindInvalidSession {
		t.Fatalf("error = %v, want InvalidSession", err)
	}
	if se.Message != "Missing sessionToken" || se.StatusCode != 401 {
		t.Errorf("got %q/%d, want Missing sessionToken/401", se.Message, se.StatusCode)
	}
	if hits != 0 {
		t.Errorf("server hit %d times, want no network I/O", hits)
	}
	if routes := nav.Routes(); len(routes) != 1 || routes[0] != RouteSessionError {
		t.Errorf("routes = %v, want one sessionError", routes)
	}

	_, _ = d.Send(context.Background(), Request{Method: "GET", Path: "sessions", NoRedirect: true}, Credential{}, nil)
	if routes := nav.Routes(); len(routes) != 1 {
		t.Errorf("NoRedirect should suppress navigation, routes = %v", routes)
	}
}

func TestDispatcher_UnsupportedMethod(t *testing.T) {
	hits := 0
	d, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) { hits++ })

	_, err := d.Send(context.Background(), Request{Method: "PUT", Path: "ndas"}, Token("t"), nil)
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("error = %v, want BadRequest", err)
	}
	if hits != 0 {
		t.Error("unsupported method must not reach the network")
	}
}

func TestDispatcher_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	d := NewDispatcher(Config{BaseURL: url, Logger: logger.NewNop()})
	_, err := d.Send(context.Background(), Request{Method: "GET", Path: "ndas"}, Token("t"), nil)

	se, ok := domain.AsServiceError(err)
	if !ok || se.Kind != domain.KindServiceUnavailable {
		t.Fatalf("error = %v, want ServiceUnavailable", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable || se.Message != "Service Unavailable" {
		t.Errorf("got %d %q", se.StatusCode, se.Message)
	}
	if se.Cause == nil {
		t.Error("transport error should be kept as cause")
	}
}

func TestDispatcher_Cancellation(t *testing.T) {
	release := make(chan struct{})
	d, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := d.Send(ctx, Request{Method: "GET", Path: "ndas"}, Token("t"), nil)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("error = %v, want ServiceUnavailable", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, should wrap context.Canceled", err)
	}
}

func TestDispatcher_AbsoluteURL(t *testing.T) {
	var path string
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer other.Close()

	d := NewDispatcher(Config{BaseURL: "https://api.example.invalid", Logger: logger.NewNop()})
	if got := d.URL("ndas"); got != "https://api.example.invalid/ndas" {
		t.Errorf("URL(ndas) = %q", got)
	}

	if _, err := d.Send(context.Background(), Request{Method: "GET", Path: other.URL + "/elsewhere"}, NoSession, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if path != "/elsewhere" {
		t.Errorf("path = %q, absolute URL should be used as is", path)
	}
}

func TestDispatcher_DefaultBaseURL(t *testing.T) {
	d := NewDispatcher(Config{})
	if d.BaseURL() != "https://api.ndaify.com" {
		t.Errorf("BaseURL() = %q", d.BaseURL())
	}
}

func TestDispatcher_RateLimitCancelled(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	d := NewDispatcher(Config{BaseURL: server.URL, RateLimit: 0.001, RateBurst: 1, Logger: logger.NewNop()})

	if _, err := d.Send(context.Background(), Request{Method: "GET", Path: "a"}, NoSession, nil); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.Send(ctx, Request{Method: "GET", Path: "b"}, NoSession, nil)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("error = %v, want ServiceUnavailable from limiter", err)
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestDispatcher_SetNavigator(t *testing.T) {
	d, first, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	second := &recordingNavigator{}
	d.SetNavigator(second)
	_, _ = d.Send(context.Background(), Request{Method: "GET", Path: "ndas"}, Token("t"), nil)

	if len(first.Routes()) != 0 || len(second.Routes()) != 1 {
		t.Errorf("redirect went to the wrong navigator: first=%v second=%v", first.Routes(), second.Routes())
	}

	d.SetNavigator(nil)
	_, err := d.Send(context.Background(), Request{Method: "GET", Path: "ndas"}, Token("t"), nil)
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Errorf("error = %v, want InvalidSession without navigator", err)
	}
}

func TestDispatcher_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	d := NewDispatcher(Config{BaseURL: server.URL, Metrics: reg, Logger: logger.NewNop()})
	_, _ = d.Send(context.Background(), Request{Operation: "getNda", Method: "GET", Path: "ok"}, NoSession, nil)
	_, _ = d.Send(context.Background(), Request{Operation: "getNda", Method: "GET", Path: "missing"}, NoSession, nil)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()
	for _, want := range []string{
		`ndaify_api_requests_total{operation="getNda",outcome="ok"} 1`,
		`ndaify_api_requests_total{operation="getNda",outcome="not_found"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}
