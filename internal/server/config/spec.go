package config

import "time"

// ServerConfig is the root configuration for fintrackr-sessiond.
type ServerConfig struct {
	Session   SessionSection   `koanf:"session" json:"session"`
	Storage   StorageSection   `koanf:"storage" json:"storage"`
	Telemetry TelemetrySection `koanf:"telemetry" json:"telemetry"`
	Log       LogSection       `koanf:"log" json:"log"`
}

// SessionSection configures session policy and the cleanup scheduler.
type SessionSection struct {
	// MaxPerUser caps the active sessions of one user.
	MaxPerUser int `koanf:"max_per_user" json:"max_per_user"`

	// MaxAge is the absolute session lifetime measured from creation.
	MaxAge time.Duration `koanf:"max_age" json:"max_age"`

	// CleanupInterval is the period of the background cleanup pass.
	CleanupInterval time.Duration `koanf:"cleanup_interval" json:"cleanup_interval"`

	// CleanupTimeout bounds a single cleanup pass.
	CleanupTimeout time.Duration `koanf:"cleanup_timeout" json:"cleanup_timeout"`

	// CleanupOnStart runs a pass immediately when the daemon starts.
	CleanupOnStart bool `koanf:"cleanup_on_start" json:"cleanup_on_start"`
}

// StorageSection selects and configures the session backend.
type StorageSection struct {
	// Engine is one of memory, badger, redis.
	Engine string `koanf:"engine" json:"engine"`

	// DataDir holds the badger files.
	DataDir string `koanf:"data_dir" json:"data_dir"`

	// EncryptionKey enables at-rest sealing for badger records.
	EncryptionKey string `koanf:"encryption_key" json:"encryption_key"`

	Badger BadgerSection `koanf:"badger" json:"badger"`
	Redis  RedisSection  `koanf:"redis" json:"redis"`
}

// BadgerSection tunes the badger engine.
type BadgerSection struct {
	GCInterval  time.Duration `koanf:"gc_interval" json:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold" json:"gc_threshold"`
	SyncWrites  bool          `koanf:"sync_writes" json:"sync_writes"`
}

// RedisSection configures the redis engine.
type RedisSection struct {
	URL         string        `koanf:"url" json:"url"`
	KeyPrefix   string        `koanf:"key_prefix" json:"key_prefix"`
	PoolSize    int           `koanf:"pool_size" json:"pool_size"`
	DialTimeout time.Duration `koanf:"dial_timeout" json:"dial_timeout"`
}

// TelemetrySection configures metrics and tracing.
type TelemetrySection struct {
	// MetricsAddr is the listen address for /metrics and /healthz.
	// Empty disables the endpoint.
	MetricsAddr string `koanf:"metrics_addr" json:"metrics_addr"`

	// RateLimit caps requests per second across the HTTP endpoints.
	// Zero disables the limit.
	RateLimit int `koanf:"rate_limit" json:"rate_limit"`

	// Tracing writes spans of service operations to stderr.
	Tracing bool `koanf:"tracing" json:"tracing"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}
