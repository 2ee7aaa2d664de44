// Package command defines the fintrackr-sessiond command line using
// urfave/cli/v2.
//
//   - root.go: App, global flags, lazy config and logger setup
//   - runtime.go: wiring of storage backend, tracer and session service
//   - serve.go: the long-running daemon (cleanup scheduler, /metrics, /healthz)
//   - cleanup.go: a single cleanup pass
//   - session.go: operator commands on one user's sessions
//   - system.go: storage status and garbage collection
//   - views.go: table renderings of results
//
// Every command opens the configured backend directly, so operator commands
// against the memory engine only see their own process.
package command
