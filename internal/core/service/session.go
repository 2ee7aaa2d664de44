package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
	"github.com/fintrackr/fintrackr/internal/telemetry/metric"
	"github.com/fintrackr/fintrackr/internal/telemetry/tracer"
)

// SessionRepository defines the storage interface for session operations.
//
// Implementations must be safe for concurrent use and must return
// domain.ErrSessionNotFound for unknown IDs.
type SessionRepository interface {
	// CreateSession inserts a new session.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSessionByID retrieves a session by ID.
	GetSessionByID(ctx context.Context, id string) (*domain.Session, error)

	// GetSessionsByUserID retrieves all sessions of a user, active and revoked.
	GetSessionsByUserID(ctx context.Context, userID int64) ([]*domain.Session, error)

	// GetAllSessions retrieves every stored session.
	GetAllSessions(ctx context.Context) ([]*domain.Session, error)

	// UpdateSession applies a partial update to a stored session.
	UpdateSession(ctx context.Context, id string, patch domain.SessionPatch) error

	// DeleteSession physically removes a session.
	DeleteSession(ctx context.Context, id string) error
}

// Option configures a SessionService.
type Option func(*SessionService)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.now = now }
}

// WithIDGenerator sets the session ID generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *SessionService) { s.newID = gen }
}

// WithMaxSessionsPerUser overrides domain.MaxSessionsPerUser. Values < 1 are ignored.
func WithMaxSessionsPerUser(n int) Option {
	return func(s *SessionService) {
		if n > 0 {
			s.maxPerUser = n
		}
	}
}

// WithMaxSessionAge overrides domain.MaxSessionAge. Non-positive values are ignored.
func WithMaxSessionAge(d time.Duration) Option {
	return func(s *SessionService) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SessionService) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metric.SessionMetrics) Option {
	return func(s *SessionService) { s.metrics = m }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *SessionService) { s.tracer = t }
}

// SessionService handles session lifecycle operations.
//
// A session moves one way, from active to revoked. The service is the only
// component that flips IsActive and never sets it back to true.
type SessionService struct {
	repo       SessionRepository
	now        func() time.Time
	newID      func() (string, error)
	maxPerUser int
	maxAge     time.Duration
	logger     logger.Logger
	metrics    *metric.SessionMetrics
	tracer     trace.Tracer
}

// NewSessionService creates a new SessionService.
func NewSessionService(repo SessionRepository, opts ...Option) *SessionService {
	s := &SessionService{
		repo:       repo,
		now:        time.Now,
		newID:      domain.GenerateSessionID,
		maxPerUser: domain.MaxSessionsPerUser,
		maxAge:     domain.MaxSessionAge,
		tracer:     noop.NewTracerProvider().Tracer(tracer.InstrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// MaxSessionsPerUser returns the effective per-user limit.
func (s *SessionService) MaxSessionsPerUser() int { return s.maxPerUser }

// MaxSessionAge returns the effective absolute session lifetime.
func (s *SessionService) MaxSessionAge() time.Duration { return s.maxAge }

// ============================================================================
// Create
// ============================================================================

// Create starts a new active session for userID and returns its ID.
//
// If the user already holds the maximum number of active sessions, the
// ones with the oldest LastActivity are revoked first so that at most
// MaxSessionsPerUser remain active once the new session is stored.
func (s *SessionService) Create(ctx context.Context, userID int64, md domain.Metadata) (id string, err error) {
	ctx, span := tracer.Start(ctx, s.tracer, "session.create", attribute.Int64("user_id", userID))
	defer func() { tracer.End(span, err) }()

	if err := validateUserID(userID); err != nil {
		return "", err
	}

	id, err = s.newID()
	if err != nil {
		if !domain.IsDomainError(err, "") {
			err = domain.ErrInternal.WithCause(err)
		}
		return "", err
	}

	now := s.now()
	session := domain.NewSession(id, userID, md, now)

	evicted, err := s.enforceLimit(ctx, userID, now)
	if err != nil {
		return "", err
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return "", storageErr(err)
	}

	s.metrics.IncCreated()
	s.logger.WithContext(ctx).Debug("session created",
		"session_id", id,
		"user_id", userID,
		"device_type", session.DeviceType,
		"evicted", evicted)

	return id, nil
}

// enforceLimit revokes the least recently used active sessions of userID
// until one more session fits under the limit. Returns the number revoked.
func (s *SessionService) enforceLimit(ctx context.Context, userID int64, now time.Time) (int, error) {
	sessions, err := s.repo.GetSessionsByUserID(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}

	active := filterActive(sessions)
	excess := len(active) - s.maxPerUser + 1
	if excess <= 0 {
		return 0, nil
	}

	evicted := 0
	for _, victim := range selectEvictionVictims(active, excess) {
		if err := s.repo.UpdateSession(ctx, victim.ID, domain.RevokePatch(now)); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return evicted, storageErr(err)
		}
		evicted++
		s.logger.WithContext(ctx).Info("session evicted",
			"session_id", victim.ID,
			"user_id", userID,
			"last_activity", victim.LastActivity)
	}
	s.metrics.AddRevoked(metric.ReasonEvicted, evicted)

	return evicted, nil
}

// ============================================================================
// Query Operations
// ============================================================================

// Get returns the session with the given ID, or nil if there is none.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return session, nil
}

// GetActiveSessions returns the active sessions of userID in no particular order.
func (s *SessionService) GetActiveSessions(ctx context.Context, userID int64) ([]*domain.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.GetSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return filterActive(sessions), nil
}

// ListSessions returns every session of userID, newest first.
func (s *SessionService) ListSessions(ctx context.Context, userID int64) ([]*domain.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.GetSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	slices.SortStableFunc(sessions, func(a, b *domain.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sessions, nil
}

// ============================================================================
// Activity & Validity
// ============================================================================

// UpdateActivity sets LastActivity of the session to now.
//
// It does not check whether the session is active; callers that depend on
// that call IsValid first. An unknown ID yields domain.ErrSessionNotFound.
func (s *SessionService) UpdateActivity(ctx context.Context, sessionID string) error {
	if err := s.repo.UpdateSession(ctx, sessionID, domain.ActivityPatch(s.now())); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrSessionNotFound.WithDetails("session_id " + logger.MaskSessionID(sessionID))
		}
		return storageErr(err)
	}
	return nil
}

// IsValid reports whether the session exists, is active and is younger
// than the maximum session age.
//
// This is a query with a side effect: a session found past its absolute
// lifetime is revoked before false is returned. LastActivity is not touched.
func (s *SessionService) IsValid(ctx context.Context, sessionID string) (valid bool, err error) {
	ctx, span := tracer.Start(ctx, s.tracer, "session.validate")
	defer func() {
		span.SetAttributes(attribute.Bool("valid", valid))
		tracer.End(span, err)
	}()

	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.metrics.IncValidation(metric.ResultNotFound)
			return false, nil
		}
		s.metrics.IncValidation(metric.ResultError)
		return false, storageErr(err)
	}

	if !session.IsActive {
		s.metrics.IncValidation(metric.ResultInactive)
		return false, nil
	}

	now := s.now()
	if session.IsExpired(now, s.maxAge) {
		if err := s.repo.UpdateSession(ctx, sessionID, domain.RevokePatch(now)); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			s.metrics.IncValidation(metric.ResultError)
			return false, storageErr(err)
		}
		s.metrics.IncValidation(metric.ResultExpired)
		s.metrics.AddRevoked(metric.ReasonExpired, 1)
		s.logger.WithContext(ctx).Info("session expired",
			"session_id", sessionID,
			"user_id", session.UserID,
			"age", session.Age(now).Round(time.Second))
		return false, nil
	}

	s.metrics.IncValidation(metric.ResultValid)
	return true, nil
}

// ============================================================================
// Revocation
// ============================================================================

// Revoke deactivates a session. Revoking a revoked or unknown session is a no-op.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) (err error) {
	ctx, span := tracer.Start(ctx, s.tracer, "session.revoke")
	defer func() { tracer.End(span, err) }()

	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return storageErr(err)
	}
	if !session.IsActive {
		return nil
	}

	if err := s.repo.UpdateSession(ctx, sessionID, domain.RevokePatch(s.now())); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return storageErr(err)
	}

	s.metrics.AddRevoked(metric.ReasonUser, 1)
	s.logger.WithContext(ctx).Info("session revoked",
		"session_id", sessionID,
		"user_id", session.UserID)
	return nil
}

// RevokeAll revokes every active session of userID except exceptSessionID,
// which may be empty. It returns the number of sessions revoked.
//
// Any storage failure aborts the operation and is returned with a zero count;
// sessions revoked before the failure stay revoked.
func (s *SessionService) RevokeAll(ctx context.Context, userID int64, exceptSessionID string) (n int, err error) {
	ctx, span := tracer.Start(ctx, s.tracer, "session.revoke_all", attribute.Int64("user_id", userID))
	defer func() { tracer.End(span, err) }()

	if err := validateUserID(userID); err != nil {
		return 0, err
	}

	sessions, err := s.repo.GetSessionsByUserID(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}

	now := s.now()
	for _, session := range filterActive(sessions) {
		if session.ID == exceptSessionID {
			continue
		}
		if err := s.repo.UpdateSession(ctx, session.ID, domain.RevokePatch(now)); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			s.metrics.AddRevoked(metric.ReasonBulk, n)
			return 0, storageErr(err)
		}
		n++
	}

	s.metrics.AddRevoked(metric.ReasonBulk, n)
	s.logger.WithContext(ctx).Info("sessions revoked",
		"user_id", userID,
		"count", n,
		"except_session_id", exceptSessionID)
	return n, nil
}

// PurgeRevoked physically deletes sessions revoked more than olderThan ago.
// It returns the number of sessions deleted.
func (s *SessionService) PurgeRevoked(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan < 0 {
		return 0, domain.ErrInvalidArgument.WithDetails("older_than must not be negative")
	}

	sessions, err := s.repo.GetAllSessions(ctx)
	if err != nil {
		return 0, storageErr(err)
	}

	cutoff := s.now().Add(-olderThan)
	purged := 0
	for _, session := range sessions {
		if session.IsActive || session.RevokedAt == nil || session.RevokedAt.After(cutoff) {
			continue
		}
		if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return purged, storageErr(err)
		}
		purged++
	}

	s.logger.WithContext(ctx).Info("revoked sessions purged",
		"count", purged,
		"older_than", olderThan)
	return purged, nil
}

// ============================================================================
// Helpers
// ============================================================================

func validateUserID(userID int64) error {
	if userID <= 0 {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("user_id must be positive, got %d", userID))
	}
	return nil
}

func filterActive(sessions []*domain.Session) []*domain.Session {
	active := make([]*domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.IsActive {
			active = append(active, session)
		}
	}
	return active
}

// storageErr wraps a collaborator failure. Domain errors pass through.
func storageErr(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorage.WithCause(err)
}
