package command

import (
	"github.com/urfave/cli/v2"
)

// CleanupCommand runs one cleanup pass and prints its report.
func CleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Revoke every session older than the maximum session age once",
		Action: func(c *cli.Context) error {
			return withRuntime(c, func(rt *runtime) error {
				report, err := rt.svc.CleanupOldSessions(c.Context)
				if report != nil {
					if rerr := render(c, cleanupView{report}); rerr != nil {
						return rerr
					}
				}
				return err
			})
		},
	}
}
