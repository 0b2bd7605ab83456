package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentIntentRequest is the payload for creating a payment intent.
type PaymentIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Validate checks the request before it is sent.
func (p PaymentIntentRequest) Validate() error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrMissingArgument)
	}
	if len(strings.TrimSpace(p.Currency)) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrMissingArgument)
	}
	return nil
}

// PaymentIntent is an opaque intent object returned by the service.
type PaymentIntent json.RawMessage

// MarshalJSON returns the raw intent.
func (p PaymentIntent) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON stores a copy of data.
func (p *PaymentIntent) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}
