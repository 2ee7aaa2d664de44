// Package main provides the entry point for fintrackr-sessiond.
//
// The binary hosts the FinTrackr session subsystem. It runs as a daemon
// (periodic cleanup, metrics and health endpoints) and doubles as the
// operator tool for inspecting and revoking sessions:
//
//	fintrackr-sessiond --config /etc/fintrackr/sessiond.yaml serve
//	fintrackr-sessiond session list --user 42 -o json
//	fintrackr-sessiond session revoke-all --user 42
//
// Build metadata is injected with:
//
//	-ldflags "-X github.com/fintrackr/fintrackr/internal/infra/buildinfo.Version=v1.0.0"
package main
