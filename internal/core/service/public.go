package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/core/domain"
)

// CreatePaymentIntent starts a payment for the current user.
func (c *Client) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (domain.PaymentIntent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, connection.Request{
		Operation: "createPaymentIntent",
		Method:    http.MethodPost,
		Path:      "payment-intents",
	}, req)
	if err != nil {
		return nil, err
	}
	return unwrap[domain.PaymentIntent](raw, "paymentIntent")
}

// GetNdaStatistics returns the public service counters.
func (c *Client) GetNdaStatistics(ctx context.Context) (*domain.NdaStatistics, error) {
	raw, err := c.callPublic(ctx, connection.Request{
		Operation: "getNdaStatistics",
		Method:    http.MethodGet,
		Path:      "nda-statistics",
	}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[*domain.NdaStatistics](raw, "ndaStatistics")
}

// GetNdaTemplate fetches a template by its "owner/repo/ref/path" id.
func (c *Client) GetNdaTemplate(ctx context.Context, templateID string) (*domain.NdaTemplate, error) {
	id, err := domain.ParseTemplateID(templateID)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("nda-templates/%s/%s/%s/%s",
		connection.EscapeComponent(id.Owner),
		connection.EscapeComponent(id.Repo),
		connection.EscapeComponent(id.Ref),
		escapePath(id.Path))
	raw, err := c.callPublic(ctx, connection.Request{
		Operation: "getNdaTemplate",
		Method:    http.MethodGet,
		Path:      path,
	}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[*domain.NdaTemplate](raw, "ndaTemplate")
}

// GetOpenAPISpec returns the API description document as-is.
func (c *Client) GetOpenAPISpec(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.callPublic(ctx, connection.Request{
		Operation: "getOpenApiSpec",
		Method:    http.MethodGet,
		Path:      "static/openapi.json",
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, unexpected(fmt.Errorf("openapi: %w", ErrEmptyResponse))
	}
	return raw, nil
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	out := make([]byte, 0, len(p))
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			out = append(out, connection.EscapeComponent(p[start:i])...)
			if i < len(p) {
				out = append(out, '/')
			}
			start = i + 1
		}
	}
	return string(out)
}
