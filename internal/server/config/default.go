package config

import "time"

// Default configuration values.
const (
	DefaultMaxPerUser      = 5
	DefaultMaxAge          = 30 * 24 * time.Hour
	DefaultCleanupInterval = time.Hour
	DefaultCleanupTimeout  = 5 * time.Minute

	DefaultEngine      = "memory"
	DefaultDataDir     = "/var/lib/fintrackr-sessiond/data"
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5

	DefaultRedisURL         = "redis://localhost:6379/0"
	DefaultRedisKeyPrefix   = "fintrackr:"
	DefaultRedisPoolSize    = 10
	DefaultRedisDialTimeout = 5 * time.Second

	DefaultMetricsAddr = "127.0.0.1:9464"
	DefaultRateLimit   = 50

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Session: SessionSection{
			MaxPerUser:      DefaultMaxPerUser,
			MaxAge:          DefaultMaxAge,
			CleanupInterval: DefaultCleanupInterval,
			CleanupTimeout:  DefaultCleanupTimeout,
		},
		Storage: StorageSection{
			Engine:  DefaultEngine,
			DataDir: DefaultDataDir,
			Badger: BadgerSection{
				GCInterval:  DefaultGCInterval,
				GCThreshold: DefaultGCThreshold,
			},
			Redis: RedisSection{
				URL:         DefaultRedisURL,
				KeyPrefix:   DefaultRedisKeyPrefix,
				PoolSize:    DefaultRedisPoolSize,
				DialTimeout: DefaultRedisDialTimeout,
			},
		},
		Telemetry: TelemetrySection{
			MetricsAddr: DefaultMetricsAddr,
			RateLimit:   DefaultRateLimit,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
