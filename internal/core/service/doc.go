// Package service provides the session domain service.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - SessionService: session lifecycle, per-user limits with eviction,
//     validity checks with lazy expiry, statistics and anomaly heuristics
//   - StartSessionCleanup / StopSessionCleanup: the periodic expiry task
//
// SessionService holds no locks. Read-then-write sequences (eviction on
// create, revocation on an expired validity check) are not atomic against
// other processes sharing the same store, so the per-user limit is a soft
// guarantee under concurrent logins.
package service
