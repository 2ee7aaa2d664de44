package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/internal/storage/memory"
	"github.com/fintrackr/fintrackr/internal/storage/redisstore"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

// Engine names.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
	EngineRedis  = "redis"
)

// Engines lists the supported engine names.
var Engines = []string{EngineMemory, EngineBadger, EngineRedis}

// Backend is a session repository owned by the process.
type Backend interface {
	service.SessionRepository

	// Count returns the number of stored and active sessions.
	Count(ctx context.Context) (total, active int, err error)

	// Close releases the backend's resources.
	Close() error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*BadgerStore)(nil)
	_ Backend = (*redisstore.Store)(nil)
)

// Config selects and configures a backend.
type Config struct {
	// Engine is one of memory, badger, redis. Empty means memory.
	Engine string

	// DataDir is the base directory for the badger engine. Badger files
	// live in DataDir/sessions.
	DataDir string

	// EncryptionKey enables at-rest sealing for the badger engine.
	EncryptionKey []byte

	// Badger tuning. Dir and EncryptionKey are filled from the fields above.
	Badger BadgerConfig

	Redis redisstore.Config
}

// Open creates the backend named by cfg.Engine.
func Open(ctx context.Context, cfg Config, log logger.Logger) (Backend, error) {
	if log == nil {
		log = logger.Default()
	}

	switch cfg.Engine {
	case "", EngineMemory:
		log.Info("storage opened", "engine", EngineMemory)
		return memory.New(), nil

	case EngineBadger:
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("storage: badger engine requires a data dir")
		}
		bcfg := cfg.Badger
		bcfg.Dir = filepath.Join(cfg.DataDir, "sessions")
		bcfg.EncryptionKey = cfg.EncryptionKey
		store, err := NewBadgerStore(bcfg, log)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return store, nil

	case EngineRedis:
		store, err := redisstore.New(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		log.Info("storage opened", "engine", EngineRedis, "prefix", cfg.Redis.KeyPrefix)
		return store, nil

	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}
