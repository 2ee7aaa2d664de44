package logger

import (
	"log/slog"
	"strings"
)

// sessionIDLength matches the hex encoding of a 256-bit session ID.
const sessionIDLength = 64

// sessionIDKeySuffix marks attributes carrying a session ID.
const sessionIDKeySuffix = "session_id"

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}

		// Session IDs are partially masked so log lines stay correlatable.
		if strings.HasSuffix(strings.ToLower(a.Key), sessionIDKeySuffix) || looksLikeSessionID(strVal) {
			return slog.String(a.Key, MaskSessionID(strVal))
		}

		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// MaskSessionID keeps the first and last four characters of id.
// Values of eight characters or fewer are fully masked.
func MaskSessionID(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:4] + "..." + id[len(id)-4:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

func looksLikeSessionID(v string) bool {
	if len(v) != sessionIDLength {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
