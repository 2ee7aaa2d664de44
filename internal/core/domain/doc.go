// Package domain defines the core domain models for the FinTrackr
// session subsystem.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Session: user session entity and its one-way Active -> Revoked lifecycle
//   - SessionPatch: partial update applied by storage backends
//   - Alert and SessionStats: read models produced by the session service
//   - Errors: domain error taxonomy with stable codes
package domain
