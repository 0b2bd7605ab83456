package logger

import (
	"log/slog"
	"strings"
)

// authSchemes are Authorization header schemes whose credential part is masked.
var authSchemes = []string{"ApiKey ", "Bearer "}

// Key-name fragments that mark an attribute as sensitive.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"api_key",
	"credential",
	"authorization",
	"encryption_key",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if masked, ok := maskAuthHeader(v); ok {
			return slog.String(a.Key, masked)
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactString(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskAuthHeader masks the credential of "ApiKey <key>" style values.
func maskAuthHeader(v string) (string, bool) {
	for _, scheme := range authSchemes {
		if strings.HasPrefix(v, scheme) {
			return scheme + RedactString(v[len(scheme):]), true
		}
	}
	return "", false
}

// RedactString masks a secret, keeping only a short hint of its tail.
// Values of eight characters or fewer are fully redacted.
func RedactString(value string) string {
	if len(value) <= 8 {
		return redactedValue
	}
	return "..." + value[len(value)-4:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}
