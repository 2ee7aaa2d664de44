package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifySession(&cfg.Session),
		verifyStorage(&cfg.Storage),
		verifyTelemetry(&cfg.Telemetry),
		verifyLog(&cfg.Log),
	)
}

func verifySession(cfg *SessionSection) error {
	var errs []error
	if cfg.MaxPerUser <= 0 {
		errs = append(errs, fmt.Errorf("session.max_per_user must be positive, got %d", cfg.MaxPerUser))
	}
	if cfg.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("session.max_age must be positive, got %s", cfg.MaxAge))
	}
	if cfg.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.cleanup_interval must be positive, got %s", cfg.CleanupInterval))
	}
	if cfg.CleanupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session.cleanup_timeout must be positive, got %s", cfg.CleanupTimeout))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case "memory":
		return nil

	case "badger":
		var errs []error
		if cfg.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir is required for the badger engine"))
		}
		if cfg.Badger.GCInterval <= 0 {
			errs = append(errs, fmt.Errorf("storage.badger.gc_interval must be positive, got %s", cfg.Badger.GCInterval))
		}
		if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
			errs = append(errs, fmt.Errorf("storage.badger.gc_threshold must be in (0, 1), got %g", cfg.Badger.GCThreshold))
		}
		return errors.Join(errs...)

	case "redis":
		var errs []error
		if cfg.Redis.URL == "" {
			errs = append(errs, errors.New("storage.redis.url is required for the redis engine"))
		}
		if cfg.Redis.PoolSize <= 0 {
			errs = append(errs, fmt.Errorf("storage.redis.pool_size must be positive, got %d", cfg.Redis.PoolSize))
		}
		if cfg.Redis.DialTimeout <= 0 {
			errs = append(errs, fmt.Errorf("storage.redis.dial_timeout must be positive, got %s", cfg.Redis.DialTimeout))
		}
		return errors.Join(errs...)

	default:
		return fmt.Errorf("storage.engine %q is not one of memory, badger, redis", cfg.Engine)
	}
}

func verifyTelemetry(cfg *TelemetrySection) error {
	var errs []error
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("telemetry.metrics_addr: %w", err))
		}
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("telemetry.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errors.Join(errs...)
}
