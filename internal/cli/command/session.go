package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fintrackr/fintrackr/internal/core/domain"
)

func userFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User ID",
		Required: true,
	}
}

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect and manage user sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a user's sessions, newest first",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "active",
						Usage: "Only active sessions",
					},
				},
				Action: sessionList,
			},
			{
				Name:      "get",
				Usage:     "Show one session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionGet,
			},
			{
				Name:  "create",
				Usage: "Create a session (enforces the per-user limit)",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{Name: "device-name", Usage: "Device name"},
					&cli.StringFlag{Name: "device-type", Usage: "Device type (desktop, mobile, ...)"},
					&cli.StringFlag{Name: "ip", Usage: "Client IP address"},
					&cli.StringFlag{Name: "user-agent", Usage: "Client user agent"},
					&cli.StringFlag{Name: "location", Usage: "Approximate location"},
				},
				Action: sessionCreate,
			},
			{
				Name:      "check",
				Usage:     "Report whether a session is valid (revokes it if expired)",
				ArgsUsage: "SESSION_ID",
				Action:    sessionCheck,
			},
			{
				Name:      "touch",
				Usage:     "Record activity on a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionTouch,
			},
			{
				Name:   "stats",
				Usage:  "Summarize a user's sessions",
				Flags:  []cli.Flag{userFlag()},
				Action: sessionStats,
			},
			{
				Name:   "alerts",
				Usage:  "Detect suspicious activity on a user's sessions",
				Flags:  []cli.Flag{userFlag()},
				Action: sessionAlerts,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionRevoke,
			},
			{
				Name:  "revoke-all",
				Usage: "Revoke all active sessions of a user",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "except",
						Usage: "Session ID to keep",
					},
				},
				Action: sessionRevokeAll,
			},
			{
				Name:  "purge",
				Usage: "Delete revoked sessions whose revocation is older than a retention period",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Retention period for revoked sessions",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: sessionPurge,
			},
		},
	}
}

// withRuntime runs fn against an opened runtime and closes it afterwards.
func withRuntime(c *cli.Context, fn func(rt *runtime) error) (err error) {
	rt, err := runtimeFor(c, nil)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close(c.Context))
	}()
	return fn(rt)
}

func sessionIDArg(c *cli.Context) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", fmt.Errorf("session ID required")
	}
	return id, nil
}

func sessionList(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		var (
			sessions []*domain.Session
			err      error
		)
		if c.Bool("active") {
			sessions, err = rt.svc.GetActiveSessions(c.Context, c.Int64("user"))
		} else {
			sessions, err = rt.svc.ListSessions(c.Context, c.Int64("user"))
		}
		if err != nil {
			return err
		}
		return render(c, sessionsView(sessions))
	})
}

func sessionGet(c *cli.Context) error {
	id, err := sessionIDArg(c)
	if err != nil {
		return err
	}
	return withRuntime(c, func(rt *runtime) error {
		session, err := rt.svc.Get(c.Context, id)
		if err != nil {
			return err
		}
		if session == nil {
			return domain.ErrSessionNotFound.WithDetails(id)
		}
		return render(c, sessionView{session})
	})
}

func sessionCreate(c *cli.Context) error {
	md := domain.Metadata{
		DeviceName: c.String("device-name"),
		DeviceType: c.String("device-type"),
		IPAddress:  c.String("ip"),
		UserAgent:  c.String("user-agent"),
		Location:   c.String("location"),
	}
	return withRuntime(c, func(rt *runtime) error {
		id, err := rt.svc.Create(c.Context, c.Int64("user"), md)
		if err != nil {
			return err
		}
		return render(c, resultView{Action: "created", SessionID: id, UserID: c.Int64("user")})
	})
}

func sessionCheck(c *cli.Context) error {
	id, err := sessionIDArg(c)
	if err != nil {
		return err
	}
	return withRuntime(c, func(rt *runtime) error {
		valid, err := rt.svc.IsValid(c.Context, id)
		if err != nil {
			return err
		}
		return render(c, resultView{Action: "checked", SessionID: id, Valid: boolPtr(valid)})
	})
}

func sessionTouch(c *cli.Context) error {
	id, err := sessionIDArg(c)
	if err != nil {
		return err
	}
	return withRuntime(c, func(rt *runtime) error {
		if err := rt.svc.UpdateActivity(c.Context, id); err != nil {
			return err
		}
		return render(c, resultView{Action: "touched", SessionID: id})
	})
}

func sessionStats(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		stats, err := rt.svc.GetSessionStats(c.Context, c.Int64("user"))
		if err != nil {
			return err
		}
		return render(c, statsView{UserID: c.Int64("user"), SessionStats: stats})
	})
}

func sessionAlerts(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		alerts, err := rt.svc.DetectSuspiciousActivity(c.Context, c.Int64("user"))
		if err != nil {
			return err
		}
		return render(c, alertsView(alerts))
	})
}

func sessionRevoke(c *cli.Context) error {
	id, err := sessionIDArg(c)
	if err != nil {
		return err
	}
	return withRuntime(c, func(rt *runtime) error {
		if err := rt.svc.Revoke(c.Context, id); err != nil {
			return err
		}
		return render(c, resultView{Action: "revoked", SessionID: id})
	})
}

func sessionRevokeAll(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		n, err := rt.svc.RevokeAll(c.Context, c.Int64("user"), c.String("except"))
		if err != nil {
			return err
		}
		return render(c, resultView{Action: "revoked", UserID: c.Int64("user"), Count: intPtr(n)})
	})
}

func sessionPurge(c *cli.Context) error {
	olderThan := c.Duration("older-than")
	if olderThan < 0 {
		return fmt.Errorf("--older-than must not be negative")
	}
	return withRuntime(c, func(rt *runtime) error {
		n, err := rt.svc.PurgeRevoked(c.Context, olderThan)
		if err != nil {
			return err
		}
		return render(c, resultView{Action: "purged", Count: intPtr(n)})
	})
}
