package logger

import (
	"log/slog"
	"strings"
	"testing"
)

const testSessionID = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestRedactSensitive_SessionID(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"session_id key", slog.String("session_id", testSessionID), "0123...cdef"},
		{"suffixed key", slog.String("evicted_session_id", testSessionID), "0123...cdef"},
		{"short value", slog.String("session_id", "abc"), "***"},
		{"id-shaped value", slog.String("target", testSessionID), "0123...cdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactSensitive(tt.attr).Value.String(); got != tt.want {
				t.Errorf("redactSensitive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	for _, key := range []string{"password", "encryption_key", "redis_secret", "csrf_token"} {
		t.Run(key, func(t *testing.T) {
			got := redactSensitive(slog.String(key, "value"))
			if got.Value.String() != redactedValue {
				t.Errorf("%s = %q, want redacted", key, got.Value.String())
			}
		})
	}

	if got := redactSensitive(slog.String("password", "")); got.Value.String() != "" {
		t.Error("empty values should stay empty")
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	for _, a := range []slog.Attr{
		slog.String("location", "Lisbon"),
		slog.Int64("user_id", 42),
		slog.String("device_type", "web"),
		slog.String("hash", strings.ToUpper(testSessionID)),
	} {
		if got := redactSensitive(a); !got.Value.Equal(a.Value) {
			t.Errorf("%s changed to %v", a.Key, got.Value)
		}
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	g := slog.Group("session", slog.String("session_id", testSessionID), slog.String("location", "Porto"))
	got := redactSensitive(g).Value.Group()

	if got[0].Value.String() != "0123...cdef" {
		t.Errorf("nested session_id = %q", got[0].Value.String())
	}
	if got[1].Value.String() != "Porto" {
		t.Errorf("nested location = %q", got[1].Value.String())
	}
}

func TestLogger_MasksSessionIDInOutput(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.Info("session revoked", "session_id", testSessionID)

	if strings.Contains(buf.String(), testSessionID) {
		t.Fatalf("full session ID leaked: %s", buf.String())
	}
	if decode(t, buf)["session_id"] != "0123...cdef" {
		t.Errorf("session_id = %v", decode(t, buf)["session_id"])
	}
}

func TestIsSensitiveKey(t *testing.T) {
	if !IsSensitiveKey("API_KEY") {
		t.Error("API_KEY should be sensitive")
	}
	if IsSensitiveKey("device_name") {
		t.Error("device_name should not be sensitive")
	}
}
