package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// RecoveryPolicy decides what happens to the stored key when a newly
// configured key fails its probe.
type RecoveryPolicy int

const (
	// RecoveryRevert restores the previous key.
	RecoveryRevert RecoveryPolicy = iota

	// RecoveryClear removes the key altogether.
	RecoveryClear
)

func (p RecoveryPolicy) String() string {
	switch p {
	case RecoveryRevert:
		return "revert"
	case RecoveryClear:
		return "clear"
	default:
		return fmt.Sprintf("RecoveryPolicy(%d)", int(p))
	}
}

// GetSession returns the user behind the stored key.
func (c *Client) GetSession(ctx context.Context) (*domain.User, error) {
	return c.getSession(ctx, "getSession", false)
}

// TryGetSession is GetSession without the session-error redirect. It
// probes a key before the application trusts it.
func (c *Client) TryGetSession(ctx context.Context) (*domain.User, error) {
	return c.getSession(ctx, "tryGetSession", true)
}

func (c *Client) getSession(ctx context.Context, op string, noRedirect bool) (*domain.User, error) {
	raw, err := c.call(ctx, connection.Request{
		Operation:  op,
		Method:     http.MethodGet,
		Path:       "sessions",
		NoRedirect: noRedirect,
	}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[*domain.User](raw, "user")
}

// Session is GetSession through the cache.
func (c *Client) Session(ctx context.Context) (*domain.User, error) {
	return cached(c, KeySession, func() (*domain.User, error) { return c.GetSession(ctx) })
}

// CurrentAPIKey returns the stored key, or "" when none is set.
func (c *Client) CurrentAPIKey(ctx context.Context) (string, error) {
	if c.creds == nil {
		return "", nil
	}
	return c.creds.APIKey(ctx)
}

// HasAPIKey reports whether a key is stored.
func (c *Client) HasAPIKey(ctx context.Context) (bool, error) {
	key, err := c.CurrentAPIKey(ctx)
	return key != "", err
}

// ConfigureAPIKey stores key and probes it with TryGetSession. When the
// probe fails, policy is applied and the probe error is returned. On
// success every cache is cleared because the identity may have changed.
func (c *Client) ConfigureAPIKey(ctx context.Context, key string, policy RecoveryPolicy) (*domain.User, error) {
	store, ok := c.creds.(KeyStore)
	if !ok {
		return nil, unexpected(ErrReadOnlyCredentials)
	}

	previous, err := store.APIKey(ctx)
	if err != nil {
		return nil, unexpected(fmt.Errorf("read api key: %w", err))
	}
	if err := store.SetAPIKey(ctx, key); err != nil {
		return nil, unexpected(fmt.Errorf("store api key: %w", err))
	}

	user, probeErr := c.TryGetSession(ctx)
	if probeErr == nil {
		c.EndSession()
		c.log.Info("api key configured", "user_id", user.UserID)
		return user, nil
	}

	var restore string
	if policy == RecoveryRevert {
		restore = previous
	}
	// The probe may have been cancelled; recovery must still run.
	if err := store.SetAPIKey(context.WithoutCancel(ctx), restore); err != nil {
		return nil, errors.Join(probeErr, unexpected(fmt.Errorf("recover api key (%s): %w", policy, err)))
	}
	c.log.Info("api key rejected", "policy", policy.String(), "kind", string(domain.KindOf(probeErr)))
	return nil, probeErr
}

// Logout removes the stored key and clears every cache.
func (c *Client) Logout(ctx context.Context) error {
	store, ok := c.creds.(KeyStore)
	if !ok {
		return unexpected(ErrReadOnlyCredentials)
	}
	if err := store.SetAPIKey(ctx, ""); err != nil {
		return unexpected(fmt.Errorf("remove api key: %w", err))
	}
	c.EndSession()
	return nil
}

// EndSession clears every cache.
func (c *Client) EndSession() {
	c.caches.ClearAll()
	c.log.Debug("session ended, caches cleared")
}
