// Package domain defines the core domain models for the FinTrackr session subsystem.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/fintrackr/fintrackr/pkg/token"
)

// Session policy constants.
const (
	// MaxSessionsPerUser caps the number of concurrently active sessions per user.
	MaxSessionsPerUser = 5

	// MaxSessionAge is the absolute lifetime of a session, measured from CreatedAt.
	MaxSessionAge = 30 * 24 * time.Hour

	// SessionIDBytes is the entropy of a session ID (256 bits).
	SessionIDBytes = 32

	// SessionIDLength is the length of the hex encoded session ID.
	SessionIDLength = SessionIDBytes * 2

	DefaultDeviceName = "Unknown Device"
	DefaultDeviceType = "web"
)

// Session represents a user's login session.
//
// A session is created Active and may only ever move to Revoked.
// Revoked sessions are kept (soft-revoked); physical deletion belongs
// to the storage backend or an external retention policy.
type Session struct {
	// ID is the unguessable session identifier: 64 lowercase hex characters.
	ID string `json:"session_id"`

	// UserID identifies the owner.
	UserID int64 `json:"user_id"`

	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`

	// IPAddress, UserAgent and Location are empty when absent.
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Location  string `json:"location,omitempty"`

	// CreatedAt is immutable after creation.
	CreatedAt time.Time `json:"created_at"`

	// LastActivity is touched on each validated use. Never before CreatedAt.
	LastActivity time.Time `json:"last_activity"`

	IsActive  bool       `json:"is_active"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Metadata carries the optional, caller supplied attributes of a new session.
type Metadata struct {
	DeviceName string
	DeviceType string
	IPAddress  string
	UserAgent  string
	Location   string
}

// NewSession builds an active session for userID with CreatedAt and
// LastActivity set to now. Empty device fields are defaulted.
func NewSession(id string, userID int64, md Metadata, now time.Time) *Session {
	s := &Session{
		ID:           id,
		UserID:       userID,
		DeviceName:   strings.TrimSpace(md.DeviceName),
		DeviceType:   strings.TrimSpace(md.DeviceType),
		IPAddress:    md.IPAddress,
		UserAgent:    md.UserAgent,
		Location:     strings.TrimSpace(md.Location),
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}
	if s.DeviceName == "" {
		s.DeviceName = DefaultDeviceName
	}
	if s.DeviceType == "" {
		s.DeviceType = DefaultDeviceType
	}
	return s
}

// GenerateSessionID returns a new 256-bit session ID, hex encoded.
func GenerateSessionID() (string, error) {
	id, err := token.GenerateHex(SessionIDBytes)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return id, nil
}

// IsValidSessionID reports whether id has the shape of a generated session ID.
func IsValidSessionID(id string) bool {
	return len(id) == SessionIDLength && token.IsHex(id)
}

// Age returns how long ago the session was created.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// IsExpired reports whether the session outlived maxAge.
// Expiry is absolute: it is measured from CreatedAt, not LastActivity.
func (s *Session) IsExpired(now time.Time, maxAge time.Duration) bool {
	return s.Age(now) > maxAge
}

// IsRevoked is the negation of IsActive.
func (s *Session) IsRevoked() bool {
	return !s.IsActive
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := *s
	if s.RevokedAt != nil {
		t := *s.RevokedAt
		clone.RevokedAt = &t
	}
	return &clone
}

// Validate checks the fields a storage backend relies on.
func (s *Session) Validate() error {
	var violations []string

	if s.ID == "" {
		violations = append(violations, "session_id is required")
	}
	if s.UserID <= 0 {
		violations = append(violations, "user_id must be positive")
	}
	if s.CreatedAt.IsZero() {
		violations = append(violations, "created_at is required")
	}
	if s.LastActivity.Before(s.CreatedAt) {
		violations = append(violations, "last_activity precedes created_at")
	}

	if len(violations) > 0 {
		return ErrInvalidArgument.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// SessionPatch is a partial update of a stored session.
// Nil fields are left unchanged.
type SessionPatch struct {
	LastActivity *time.Time `json:"last_activity,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// ActivityPatch returns a patch that touches LastActivity.
func ActivityPatch(at time.Time) SessionPatch {
	return SessionPatch{LastActivity: &at}
}

// RevokePatch returns a patch that revokes a session at the given instant.
func RevokePatch(at time.Time) SessionPatch {
	inactive := false
	return SessionPatch{IsActive: &inactive, RevokedAt: &at}
}

// IsEmpty reports whether the patch changes nothing.
func (p SessionPatch) IsEmpty() bool {
	return p.LastActivity == nil && p.IsActive == nil && p.RevokedAt == nil
}

// Apply applies the patch to s in place.
//
// Reactivating a revoked session is refused with ErrSessionRevoked.
// A LastActivity earlier than CreatedAt is clamped to CreatedAt.
// An existing RevokedAt is never overwritten.
func (p SessionPatch) Apply(s *Session) error {
	if p.IsActive != nil && *p.IsActive && !s.IsActive {
		return ErrSessionRevoked.WithDetails("revoked sessions cannot be reactivated")
	}

	if p.LastActivity != nil {
		at := *p.LastActivity
		if at.Before(s.CreatedAt) {
			at = s.CreatedAt
		}
		s.LastActivity = at
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	// The first revocation instant wins.
	if p.RevokedAt != nil && s.RevokedAt == nil {
		t := *p.RevokedAt
		s.RevokedAt = &t
	}
	return nil
}

// SortByCreation orders sessions by CreatedAt, then ID, giving backends
// without a natural order a deterministic one.
func SortByCreation(sessions []*Session) {
	slices.SortFunc(sessions, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
