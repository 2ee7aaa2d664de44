package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/internal/infra/buildinfo"
	"github.com/fintrackr/fintrackr/internal/infra/confloader"
	"github.com/fintrackr/fintrackr/internal/infra/shutdown"
	"github.com/fintrackr/fintrackr/internal/server/httpserver"
	"github.com/fintrackr/fintrackr/internal/storage"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
	"github.com/fintrackr/fintrackr/internal/telemetry/metric"
)

// ServeCommand runs the daemon: periodic cleanup plus the metrics and
// health endpoints, until SIGINT or SIGTERM.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the session daemon",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch-config",
				Usage: "Reload log.level when the configuration file changes",
				Value: true,
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	log.Info("starting fintrackr-sessiond",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"engine", cfg.Storage.Engine)

	reg := metric.NewRegistry()
	metrics := metric.NewSessionMetrics(reg)

	rt, err := runtimeFor(c, metrics)
	if err != nil {
		return err
	}
	rt.tracer.SetGlobal()

	reg.MustRegister(metric.NewCollector(rt.backend.Count))
	if bs, ok := rt.backend.(*storage.BadgerStore); ok {
		bs.RegisterMetrics(reg)
	}

	handler := shutdown.NewHandler(shutdown.DefaultTimeout, log)

	// Hooks run in reverse: config watcher, http, cleanup, then storage.
	handler.OnShutdown("storage", rt.Close)

	cleanup := service.StartSessionCleanup(rt.svc,
		service.WithCleanupInterval(cfg.Session.CleanupInterval),
		service.WithCleanupTimeout(cfg.Session.CleanupTimeout),
		service.WithCleanupOnStart(cfg.Session.CleanupOnStart),
		service.WithCleanupLogger(log),
	)
	handler.OnShutdown("cleanup", func(context.Context) error {
		service.StopSessionCleanup(cleanup)
		return nil
	})

	if cfg.Telemetry.MetricsAddr != "" {
		srv := httpserver.New(httpserver.NewRouter(httpserver.RouterConfig{
			Registry:  reg,
			Storage:   rt.backend,
			RateLimit: cfg.Telemetry.RateLimit,
			Logger:    log,
		}), log)
		if err := srv.Start(cfg.Telemetry.MetricsAddr); err != nil {
			_ = handler.Shutdown()
			return err
		}
		handler.OnShutdown("http", srv.Shutdown)
	}

	if path := c.String("config"); path != "" && c.Bool("watch-config") {
		w, err := watchConfig(path, log)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			handler.OnShutdown("config-watcher", func(context.Context) error {
				return w.Stop()
			})
		}
	}

	log.Info("session daemon started")
	if err := handler.Wait(c.Context); err != nil {
		return err
	}
	log.Info("session daemon stopped")
	return nil
}

// watchConfig reloads the log level whenever the file at path changes.
// Other settings need a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
