package service

import (
	"context"
	"net/http"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/storage/cache"
)

// GetNdas lists the agreements of the current user.
func (c *Client) GetNdas(ctx context.Context) ([]domain.Nda, error) {
	raw, err := c.call(ctx, connection.Request{
		Operation: "getNdas",
		Method:    http.MethodGet,
		Path:      "ndas",
	}, nil)
	if err != nil {
		return nil, err
	}
	ndas, err := unwrap[[]domain.Nda](raw, "ndas")
	if err != nil {
		return nil, err
	}
	return ndas, nil
}

// Ndas is GetNdas through the cache.
func (c *Client) Ndas(ctx context.Context) ([]domain.Nda, error) {
	return cached(c, KeyNdas, func() ([]domain.Nda, error) { return c.GetNdas(ctx) })
}

// GetNda fetches one agreement.
func (c *Client) GetNda(ctx context.Context, ndaID string) (*domain.Nda, error) {
	raw, err := c.call(ctx, connection.Request{
		Operation: "getNda",
		Method:    http.MethodGet,
		Path:      ndaPath(ndaID),
	}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[*domain.Nda](raw, "nda")
}

// Nda is GetNda through the cache.
func (c *Client) Nda(ctx context.Context, ndaID string) (*domain.Nda, error) {
	return cached(c, NdaKey(ndaID), func() (*domain.Nda, error) { return c.GetNda(ctx, ndaID) })
}

// GetNdaPreview fetches the public preview of an agreement.
func (c *Client) GetNdaPreview(ctx context.Context, ndaID string) (*domain.Nda, error) {
	raw, err := c.callPublic(ctx, connection.Request{
		Operation: "getNdaPreview",
		Method:    http.MethodGet,
		Path:      ndaPath(ndaID, "preview"),
	}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[*domain.Nda](raw, "nda")
}

// CreateNda creates an agreement.
func (c *Client) CreateNda(ctx context.Context, req domain.CreateNdaRequest) (*domain.Nda, error) {
	raw, err := c.call(ctx, connection.Request{
		Operation: "createNda",
		Method:    http.MethodPost,
		Path:      "ndas",
	}, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyNdas)
	return unwrap[*domain.Nda](raw, "nda")
}

// AcceptNda signs an agreement as its recipient.
func (c *Client) AcceptNda(ctx context.Context, ndaID string) error {
	return c.ndaAction(ctx, "acceptNda", ndaID, "accept", false)
}

// RevokeNda withdraws a pending agreement.
func (c *Client) RevokeNda(ctx context.Context, ndaID string) error {
	return c.ndaAction(ctx, "revokeNda", ndaID, "revoke", false)
}

// ResendNda sends the invitation again.
func (c *Client) ResendNda(ctx context.Context, ndaID string) error {
	return c.ndaAction(ctx, "resendNda", ndaID, "resend", false)
}

// DeclineNda declines an agreement. The endpoint is public.
func (c *Client) DeclineNda(ctx context.Context, ndaID string) error {
	return c.ndaAction(ctx, "declineNda", ndaID, "decline", true)
}

func (c *Client) ndaAction(ctx context.Context, op, ndaID, action string, public bool) error {
	req := connection.Request{
		Operation: op,
		Method:    http.MethodPost,
		Path:      ndaPath(ndaID, action),
	}
	var err error
	if public {
		_, err = c.callPublic(ctx, req, nil)
	} else {
		_, err = c.call(ctx, req, nil)
	}
	if err != nil {
		return err
	}
	c.invalidate(KeyNdas)
	return nil
}

// ndaPath builds "ndas/{id}[/suffix]" with the id escaped.
func ndaPath(ndaID string, suffix ...string) string {
	p := "ndas/" + connection.EscapeComponent(ndaID)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// NdaKey is the cache key of one agreement.
func NdaKey(ndaID string) cache.Key {
	return append(cache.Key{KeyNdas[0]}, ndaID)
}
