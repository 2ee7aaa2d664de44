package redisstore

import (
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestKeyspace(t *testing.T) {
	k := keyspace{prefix: "ft:"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"session", k.session("abc"), "ft:session:abc"},
		{"user", k.user(42), "ft:user:42:sessions"},
		{"all", k.all(), "ft:sessions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}

	if (keyspace{}).user(1) == (keyspace{}).user(11) {
		t.Error("user keys must not collide")
	}
}

func TestEncodeDecodeSession(t *testing.T) {
	revoked := t0.Add(time.Hour)
	s := domain.NewSession("abc", 7, domain.Metadata{Location: "Porto"}, t0)
	s.IsActive = false
	s.RevokedAt = &revoked

	data, err := encodeSession(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"session_id":"abc"`) {
		t.Errorf("encoded = %s", data)
	}

	got, err := decodeSession(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != 7 || got.Location != "Porto" || got.IsActive {
		t.Errorf("decoded = %+v", got)
	}
	if got.RevokedAt == nil || !got.RevokedAt.Equal(revoked) {
		t.Errorf("RevokedAt = %v, want %v", got.RevokedAt, revoked)
	}
}

func TestDecodeSession_Invalid(t *testing.T) {
	if _, err := decodeSession([]byte("{not json")); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.KeyPrefix != DefaultKeyPrefix || cfg.PoolSize != 10 || cfg.DialTimeout != 5*time.Second {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if _, err := redis.ParseURL(cfg.URL); err != nil {
		t.Errorf("default URL does not parse: %v", err)
	}
}

func TestNewWithClient_DoesNotDial(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	store := NewWithClient(client, "x:", logger.Nop())
	if store.keys.session("id") != "x:session:id" {
		t.Errorf("prefix not applied: %q", store.keys.session("id"))
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
