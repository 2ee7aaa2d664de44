package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/internal/infra/buildinfo"
	"github.com/fintrackr/fintrackr/internal/server/config"
	"github.com/fintrackr/fintrackr/internal/storage"
	"github.com/fintrackr/fintrackr/internal/storage/redisstore"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
	"github.com/fintrackr/fintrackr/internal/telemetry/metric"
	"github.com/fintrackr/fintrackr/internal/telemetry/tracer"
)

// ServiceName identifies the process in traces.
const ServiceName = "fintrackr-sessiond"

// runtime holds the collaborators of one command invocation.
type runtime struct {
	cfg     *config.ServerConfig
	log     logger.Logger
	backend storage.Backend
	tracer  *tracer.Provider
	svc     *service.SessionService

	// owned is false for runtimes injected through App.Metadata; those are
	// closed by whoever created them.
	owned bool
}

// openRuntime opens the configured backend and builds the session service.
func openRuntime(ctx context.Context, cfg *config.ServerConfig, log logger.Logger, metrics *metric.SessionMetrics, traceOut io.Writer) (*runtime, error) {
	tp, err := tracer.New(tracer.Config{
		Enabled:        cfg.Telemetry.Tracing,
		ServiceName:    ServiceName,
		ServiceVersion: buildinfo.Version,
		Output:         traceOut,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	backend, err := storage.Open(ctx, storageConfig(cfg), log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	svc := service.NewSessionService(backend,
		service.WithMaxSessionsPerUser(cfg.Session.MaxPerUser),
		service.WithMaxSessionAge(cfg.Session.MaxAge),
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithTracer(tp.Tracer()),
	)

	return &runtime{
		cfg:     cfg,
		log:     log,
		backend: backend,
		tracer:  tp,
		svc:     svc,
		owned:   true,
	}, nil
}

// runtimeFor returns the injected runtime or opens a new one.
func runtimeFor(c *cli.Context, metrics *metric.SessionMetrics) (*runtime, error) {
	if rt, ok := c.App.Metadata[metaRuntime].(*runtime); ok {
		return rt, nil
	}
	cfg, log, err := setup(c)
	if err != nil {
		return nil, err
	}
	return openRuntime(c.Context, cfg, log, metrics, c.App.ErrWriter)
}

// Close flushes spans and closes the backend of an owned runtime.
func (r *runtime) Close(ctx context.Context) error {
	if r == nil || !r.owned {
		return nil
	}
	return errors.Join(r.tracer.Shutdown(ctx), r.backend.Close())
}

// storageConfig maps the configuration file schema to the storage factory.
func storageConfig(cfg *config.ServerConfig) storage.Config {
	badger := storage.DefaultBadgerConfig("")
	badger.GCInterval = cfg.Storage.Badger.GCInterval
	badger.GCThreshold = cfg.Storage.Badger.GCThreshold
	badger.SyncWrites = cfg.Storage.Badger.SyncWrites

	var key []byte
	if cfg.Storage.EncryptionKey != "" {
		key = []byte(cfg.Storage.EncryptionKey)
	}

	return storage.Config{
		Engine:        cfg.Storage.Engine,
		DataDir:       cfg.Storage.DataDir,
		EncryptionKey: key,
		Badger:        badger,
		Redis: redisstore.Config{
			URL:         cfg.Storage.Redis.URL,
			KeyPrefix:   cfg.Storage.Redis.KeyPrefix,
			PoolSize:    cfg.Storage.Redis.PoolSize,
			DialTimeout: cfg.Storage.Redis.DialTimeout,
		},
	}
}
