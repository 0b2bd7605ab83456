package domain

import (
	"strings"
	"time"
)

// SettingAPIKey is the settings-store key under which the API key lives.
const SettingAPIKey = "NDAIFY_API_KEY"

// APIKey is an API key record. Key is only populated in the create response.
type APIKey struct {
	APIKeyID  string    `json:"apiKeyId"`
	Name      string    `json:"name,omitempty"`
	Key       string    `json:"apiKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateAPIKeyRequest is the payload for creating a key.
type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// MaskAPIKey returns a display-safe form of a key, keeping the last four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
