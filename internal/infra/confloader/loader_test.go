package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Session struct {
		MaxPerUser int           `koanf:"max_per_user"`
		MaxAge     time.Duration `koanf:"max_age"`
	} `koanf:"session"`
	Storage struct {
		Engine string `koanf:"engine"`
		Redis  struct {
			URL string `koanf:"url"`
		} `koanf:"redis"`
	} `koanf:"storage"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/path/to/config.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
session:
  max_per_user: 3
storage:
  engine: badger
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetInt("session.max_per_user"); got != 3 {
		t.Errorf("session.max_per_user = %d, want 3", got)
	}
	if got := l.GetString("storage.engine"); got != "badger" {
		t.Errorf("storage.engine = %q, want badger", got)
	}

	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()
	tests := []struct {
		env  string
		want string
	}{
		{"FINTRACKR_SESSION__MAX_AGE", "session.max_age"},
		{"FINTRACKR_STORAGE__REDIS__URL", "storage.redis.url"},
		{"FINTRACKR_LOG__LEVEL", "log.level"},
		{"FINTRACKR_TOP_LEVEL", "top_level"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := l.envKey(tt.env); got != tt.want {
				t.Errorf("envKey(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("FINTRACKR_SESSION__MAX_PER_USER", "7")
	t.Setenv("FINTRACKR_STORAGE__REDIS__URL", "redis://cache:6379/1")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetInt("session.max_per_user"); got != 7 {
		t.Errorf("session.max_per_user = %d, want 7", got)
	}
	if got := l.GetString("storage.redis.url"); got != "redis://cache:6379/1" {
		t.Errorf("storage.redis.url = %q", got)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER__PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
session:
  max_per_user: 3
  max_age: 48h
`)
	t.Setenv("FINTRACKR_SESSION__MAX_AGE", "720h")

	var cfg testConfig
	cfg.Storage.Engine = "memory"

	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Session.MaxPerUser != 3 {
		t.Errorf("MaxPerUser = %d, want 3 from file", cfg.Session.MaxPerUser)
	}
	if cfg.Session.MaxAge != 720*time.Hour {
		t.Errorf("MaxAge = %v, want 720h (env should override file)", cfg.Session.MaxAge)
	}
	if cfg.Storage.Engine != "memory" {
		t.Errorf("Engine = %q, default should survive", cfg.Storage.Engine)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_Load_BadFile(t *testing.T) {
	path := writeConfig(t, "session: [unclosed")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	err := l.LoadMap(map[string]any{
		"session": map[string]any{"max_per_user": 9},
	})
	if err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetInt("session.max_per_user"); got != 9 {
		t.Errorf("session.max_per_user = %d, want 9", got)
	}
	if len(l.Keys()) != 1 {
		t.Errorf("Keys() = %v", l.Keys())
	}
	if l.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := (mapProvider{}).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}
