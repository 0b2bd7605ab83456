package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// GetAPIKeys lists the API keys of the current user.
func (c *Client) GetAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	raw, err := c.call(ctx, connection.Request{
		Operation: "getApiKeys",
		Method:    http.MethodGet,
		Path:      "api-keys",
	}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[[]domain.APIKey](raw, "apiKeys")
}

// APIKeys is GetAPIKeys through the cache.
func (c *Client) APIKeys(ctx context.Context) ([]domain.APIKey, error) {
	return cached(c, KeyAPIKeys, func() ([]domain.APIKey, error) { return c.GetAPIKeys(ctx) })
}

// CreateAPIKey creates a named key. The secret is only present in this
// response.
func (c *Client) CreateAPIKey(ctx context.Context, name string) (*domain.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("api key name: %w", domain.ErrMissingArgument)
	}
	raw, err := c.call(ctx, connection.Request{
		Operation: "createApiKey",
		Method:    http.MethodPost,
		Path:      "api-keys",
	}, domain.CreateAPIKeyRequest{Name: name})
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyAPIKeys)
	return unwrap[*domain.APIKey](raw, "apiKey")
}

// DeleteAPIKey deletes a key by id.
func (c *Client) DeleteAPIKey(ctx context.Context, apiKeyID string) error {
	_, err := c.call(ctx, connection.Request{
		Operation: "deleteApiKey",
		Method:    http.MethodDelete,
		Path:      "api-keys/" + connection.EscapeComponent(apiKeyID),
	}, nil)
	if err != nil {
		return err
	}
	c.invalidate(KeyAPIKeys)
	return nil
}
