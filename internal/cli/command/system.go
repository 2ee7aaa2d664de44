package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/fintrackr/fintrackr/internal/server/config"
	"github.com/fintrackr/fintrackr/internal/storage"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Storage and configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show storage engine and session counts",
				Action: systemStatus,
			},
			{
				Name:   "gc",
				Usage:  "Run badger value log garbage collection",
				Action: systemGC,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration with secrets masked",
				Action: systemConfig,
			},
		},
	}
}

func systemStatus(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		total, active, err := rt.backend.Count(c.Context)
		if err != nil {
			return err
		}
		view := systemStatusView{Engine: rt.cfg.Storage.Engine, Total: total, Active: active}
		if bs, ok := rt.backend.(*storage.BadgerStore); ok {
			stats := bs.Stats()
			view.Badger = &stats
		}
		return render(c, view)
	})
}

func systemGC(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		bs, ok := rt.backend.(*storage.BadgerStore)
		if !ok {
			return fmt.Errorf("gc is only supported by the badger engine, not %q", rt.cfg.Storage.Engine)
		}
		n, err := bs.GC(c.Context)
		if err != nil {
			return err
		}
		return render(c, resultView{Action: "gc", Count: intPtr(int(n))})
	})
}

func systemConfig(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}
	return render(c, config.Sanitize(cfg))
}
