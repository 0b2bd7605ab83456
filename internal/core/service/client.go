package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/storage/cache"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

// Cache keys of the collections the client reads through the cache.
var (
	KeySession = cache.Key{"session"}
	KeyNdas    = cache.Key{"ndas"}
	KeyAPIKeys = cache.Key{"api-keys"}
)

var (
	// ErrEmptyResponse is returned when a successful response carried no
	// JSON body where one was expected.
	ErrEmptyResponse = errors.New("empty response body")

	// ErrReadOnlyCredentials is returned by key management calls when the
	// credential provider cannot store keys.
	ErrReadOnlyCredentials = errors.New("credential provider is read-only")
)

// Dispatcher sends one API call.
type Dispatcher interface {
	Send(ctx context.Context, req connection.Request, cred connection.Credential, payload any) (json.RawMessage, error)
}

// CredentialProvider returns the stored API key, or "" when none is set.
// It is consulted immediately before every authenticated call. A read
// failure reaches callers as an UnknownServiceError wrapping it.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// KeyStore is a CredentialProvider that can also replace the key. An
// empty key removes it.
type KeyStore interface {
	CredentialProvider
	SetAPIKey(ctx context.Context, key string) error
}

// StaticKey is a fixed, read-only credential.
type StaticKey string

// APIKey implements CredentialProvider.
func (k StaticKey) APIKey(context.Context) (string, error) {
	return string(k), nil
}

// Client is the NDAify service façade. It binds one method per endpoint
// and keeps the response cache consistent with mutations.
type Client struct {
	dispatcher Dispatcher
	creds      CredentialProvider
	caches     *cache.Manager
	cache      *cache.Cache
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCacheManager sets the cache manager. By default the client owns a
// private one.
func WithCacheManager(m *cache.Manager) Option {
	return func(c *Client) {
		if m != nil {
			c.caches = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a Client.
func NewClient(d Dispatcher, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		dispatcher: d,
		creds:      creds,
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.caches == nil {
		c.caches = cache.NewManager()
	}
	c.cache = c.caches.Default()
	c.log = c.log.With("component", "service")
	return c
}

// Caches returns the cache manager.
func (c *Client) Caches() *cache.Manager {
	return c.caches
}

// credential resolves the stored key. A missing key yields the falsy
// credential so the dispatcher can reject it.
func (c *Client) credential(ctx context.Context) (connection.Credential, error) {
	if c.creds == nil {
		return connection.Token(""), nil
	}
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		c.log.Warn("read api key failed", "error", err)
		return connection.Credential{}, unexpected(fmt.Errorf("read api key: %w", err))
	}
	return connection.Token(key), nil
}

// call dispatches an authenticated request.
func (c *Client) call(ctx context.Context, req connection.Request, payload any) (json.RawMessage, error) {
	cred, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}
	return c.dispatcher.Send(ctx, req, cred, payload)
}

// callPublic dispatches a request to a public endpoint.
func (c *Client) callPublic(ctx context.Context, req connection.Request, payload any) (json.RawMessage, error) {
	return c.dispatcher.Send(ctx, req, connection.NoSession, payload)
}

// invalidate drops key and everything under it after a mutation.
func (c *Client) invalidate(key cache.Key) {
	if n := c.cache.Invalidate(key); n > 0 {
		c.log.Debug("cache invalidated", "key", key.String(), "entries", n)
	}
}

// unwrap decodes the envelope field of raw into a T. A missing field or an
// undecodable body is an UnknownServiceError wrapping ErrEmptyResponse or the
// decode error.
func unwrap[T any](raw json.RawMessage, field string) (T, error) {
	var zero T
	if len(raw) == 0 {
		return zero, unexpected(fmt.Errorf("%s: %w", field, ErrEmptyResponse))
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return zero, unexpected(fmt.Errorf("decode %s envelope: %w", field, err))
	}
	inner, ok := envelope[field]
	if !ok || len(inner) == 0 || string(inner) == "null" {
		return zero, unexpected(fmt.Errorf("%s: %w", field, ErrEmptyResponse))
	}
	var v T
	if err := json.Unmarshal(inner, &v); err != nil {
		return zero, unexpected(fmt.Errorf("decode %s: %w", field, err))
	}
	return v, nil
}

// unexpected places a local failure in the error taxonomy, keeping its text
// as the message.
func unexpected(cause error) error {
	return domain.NewServiceError(domain.KindUnknown, cause.Error(), 0, nil).WithCause(cause)
}

// cached serves key from the cache, fetching and storing it on a miss.
// A result fetched across an invalidation or logout is returned but not
// stored.
// An entry that no longer decodes is treated as a miss.
func cached[T any](c *Client, key cache.Key, fetch func() (T, error)) (T, error) {
	miss := func(k cache.Key) (T, error) {
		gen := c.cache.Generation()
		v, err := fetch()
		if err != nil {
			return v, err
		}
		stored, err := c.cache.SetValueAt(gen, k, v)
		switch {
		case err != nil:
			c.log.Warn("cache store failed", "key", k.String(), "error", err)
		case !stored:
			c.log.Debug("cache invalidated during fetch, result not stored", "key", k.String())
		}
		return v, nil
	}
	hit := func(k cache.Key, raw json.RawMessage) (T, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			c.log.Debug("cached entry unreadable", "key", k.String(), "error", err)
			c.cache.Invalidate(k)
			return miss(k)
		}
		return v, nil
	}
	return cache.WithCache(c.cache, key, hit, miss)
}
