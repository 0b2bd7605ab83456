// Package connection sends authenticated requests to the NDAify API.
package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/infra/buildinfo"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.ndaify.com"

	// AuthScheme prefixes the API key in the Authorization header.
	AuthScheme = "ApiKey"

	// RouteSessionError is the route requested when a session is rejected.
	RouteSessionError = "sessionError"

	// DefaultMaxBodyBytes bounds how much of a response body is read.
	DefaultMaxBodyBytes int64 = 4 << 20
)

// Navigator receives the redirect published on session failures.
// Navigate must not block.
type Navigator interface {
	Navigate(route string)
}

// Request describes one API call.
type Request struct {
	// Operation names the call for logs and metrics (e.g. "getNdas").
	Operation string
	Method    string
	// Path is relative to the base URL unless it starts with "http".
	Path    string
	Headers map[string]string
	// NoRedirect suppresses the session-error navigation.
	NoRedirect bool
}

// Config configures a Dispatcher.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	TLSConfig *tls.Config
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	UserAgent    string

	// HTTPClient overrides the client built from Timeout and TLSConfig.
	HTTPClient *http.Client
	Navigator  Navigator
	Logger     logger.Logger
	Metrics    *metric.Registry
}

// Dispatcher performs authenticated API calls and classifies their outcome
// into domain.ServiceError values.
type Dispatcher struct {
	baseURL      string
	client       *http.Client
	limiter      *rate.Limiter
	maxBodyBytes int64
	userAgent    string
	navigator    atomic.Pointer[navigatorBox]
	log          logger.Logger
	metrics      *metric.Registry
}

type navigatorBox struct{ n Navigator }

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.TLSConfig != nil {
			transport.TLSClientConfig = cfg.TLSConfig
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout, Transport: transport}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = buildinfo.UserAgent()
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	d := &Dispatcher{
		baseURL:      baseURL,
		client:       client,
		limiter:      limiter,
		maxBodyBytes: maxBody,
		userAgent:    ua,
		log:          log.With("component", "dispatcher"),
		metrics:      cfg.Metrics,
	}
	d.SetNavigator(cfg.Navigator)
	return d
}

// SetNavigator replaces the redirect target. nil disables redirects.
func (d *Dispatcher) SetNavigator(n Navigator) {
	d.navigator.Store(&navigatorBox{n: n})
}

// BaseURL returns the base URL of the dispatcher.
func (d *Dispatcher) BaseURL() string {
	return d.baseURL
}

// URL resolves path against the base URL.
func (d *Dispatcher) URL(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	return d.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Send performs req with cred and returns the decoded JSON body of a
// successful response, or nil when the body was empty or not JSON.
//
// GET payloads become the query string; POST and DELETE payloads are sent as
// a JSON body. Every failure is a *domain.ServiceError.
func (d *Dispatcher) Send(ctx context.Context, req Request, cred Credential, payload any) (json.RawMessage, error) {
	start := time.Now()
	requestID := ulid.Make().String()
	ctx = logger.WithOperation(logger.WithRequestID(ctx, requestID), req.Operation)
	log := d.log.WithContext(ctx).With("request_id", requestID, "operation", req.Operation)

	body, err := d.send(ctx, log, requestID, req, cred, payload)

	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	d.metrics.ObserveRequest(req.Operation, outcome, time.Since(start))
	return body, err
}

func (d *Dispatcher) send(ctx context.Context, log logger.Logger, requestID string, req Request, cred Credential, payload any) (json.RawMessage, error) {
	method := strings.ToUpper(req.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, domain.NewServiceError(domain.KindBadRequest,
			fmt.Sprintf("unsupported method %q", req.Method), 0, nil)
	}

	if !cred.Valid() {
		d.redirect(req, log)
		return nil, domain.NewServiceError(domain.KindInvalidSession,
			domain.MsgMissingSession, http.StatusUnauthorized, nil)
	}

	httpReq, err := d.buildRequest(ctx, method, req, cred, payload)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Request-Id", requestID)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			log.Debug("rate limiter wait failed", "error", err)
			return nil, unavailable(err)
		}
	}

	log.Debug("sending request", "method", method, "url", httpReq.URL.Redacted(),
		"authorization", httpReq.Header.Get("Authorization"))

	resp, err := d.client.Do(httpReq)
	if err != nil {
		log.Warn("request failed", "error", err)
		return nil, unavailable(err)
	}
	defer resp.Body.Close()

	data := d.readBody(resp, log)
	log.Debug("received response", "status", resp.StatusCode, "bytes", len(data))

	if domain.IsSuccessStatus(resp.StatusCode) {
		return data, nil
	}

	kind := domain.KindForStatus(resp.StatusCode)
	message := ""
	if kind != domain.KindUnknown {
		message = gjson.GetBytes(data, "errorMessage").String()
	}
	if kind == domain.KindInvalidSession {
		d.redirect(req, log)
	}
	return nil, domain.NewServiceError(kind, message, resp.StatusCode, data)
}

func (d *Dispatcher) buildRequest(ctx context.Context, method string, req Request, cred Credential, payload any) (*http.Request, error) {
	target := d.URL(req.Path)
	var body io.Reader

	if method == http.MethodGet {
		qs, err := EncodeQuery(payload)
		if err != nil {
			return nil, domain.NewServiceError(domain.KindBadRequest, err.Error(), 0, nil)
		}
		if qs != "" {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + qs
		}
	} else if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.NewServiceError(domain.KindBadRequest,
				fmt.Sprintf("encode payload: %v", err), 0, nil)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, domain.NewServiceError(domain.KindBadRequest,
			fmt.Sprintf("create request: %v", err), 0, nil)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Authorization", cred.Authorization())
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", d.userAgent)
	return httpReq, nil
}

// readBody returns the body when it is valid JSON and nil otherwise.
func (d *Dispatcher) readBody(resp *http.Response, log logger.Logger) json.RawMessage {
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodyBytes))
	if err != nil {
		log.Debug("read response body failed", "error", err)
		return nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return nil
	}
	return json.RawMessage(data)
}

func (d *Dispatcher) redirect(req Request, log logger.Logger) {
	if req.NoRedirect {
		return
	}
	box := d.navigator.Load()
	if box == nil || box.n == nil {
		return
	}
	log.Info("session rejected, redirecting", "route", RouteSessionError)
	d.metrics.ObserveRedirect()
	box.n.Navigate(RouteSessionError)
}

func unavailable(cause error) error {
	return domain.NewServiceError(domain.KindServiceUnavailable, "",
		http.StatusServiceUnavailable, nil).WithCause(cause)
}
