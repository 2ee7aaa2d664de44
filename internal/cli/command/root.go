package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/fintrackr/fintrackr/internal/cli/output"
	"github.com/fintrackr/fintrackr/internal/infra/buildinfo"
	"github.com/fintrackr/fintrackr/internal/infra/confloader"
	"github.com/fintrackr/fintrackr/internal/server/config"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

// Metadata keys.
const (
	metaConfig  = "config"
	metaLogger  = "logger"
	metaRuntime = "runtime"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "fintrackr-sessiond",
		Usage:    "FinTrackr session management daemon and operator tool",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			ServeCommand(),
			CleanupCommand(),
			SessionCommand(),
			SystemCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
			EnvVars: []string{"FINTRACKR_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// setup loads the configuration and creates the process logger on first
// use. Later calls return the cached values.
func setup(c *cli.Context) (*config.ServerConfig, logger.Logger, error) {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.ServerConfig); ok {
		log, _ := c.App.Metadata[metaLogger].(logger.Logger)
		if log == nil {
			log = logger.Default()
		}
		return cfg, log, nil
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = log
	return cfg, log, nil
}

// loadConfig loads defaults, then the file, then FINTRACKR_ environment
// variables, and verifies the result.
func loadConfig(path string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// render writes data to the app's writer in the format chosen by --output.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return render(c, versionView(buildinfo.Get()))
		},
	}
}
