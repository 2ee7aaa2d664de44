package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

// mockSessionRepo is an in-memory SessionRepository for testing.
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	order    []string // insertion order

	// failUpdate, when set, is returned by UpdateSession for matching IDs.
	failUpdate func(id string) error
	updates    int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.ID]; exists {
		return domain.ErrSessionConflict
	}
	m.sessions[session.ID] = session.Clone()
	m.order = append(m.order, session.ID)
	return nil
}

func (m *mockSessionRepo) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *mockSessionRepo) GetSessionsByUserID(ctx context.Context, userID int64) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Session
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok && s.UserID == userID {
			result = append(result, s.Clone())
		}
	}
	return result, nil
}

func (m *mockSessionRepo) GetAllSessions(ctx context.Context) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Session, 0, len(m.sessions))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			result = append(result, s.Clone())
		}
	}
	return result, nil
}

func (m *mockSessionRepo) UpdateSession(ctx context.Context, id string, patch domain.SessionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		if err := m.failUpdate(id); err != nil {
			return err
		}
	}
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	m.updates++
	return patch.Apply(session)
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// put stores a session as-is, bypassing the service.
func (m *mockSessionRepo) put(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	m.order = append(m.order, s.ID)
}

func (m *mockSessionRepo) get(t *testing.T, id string) *domain.Session {
	t.Helper()
	s, err := m.GetSessionByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return s
}

func (m *mockSessionRepo) activeCount(userID int64) int {
	sessions, _ := m.GetSessionsByUserID(context.Background(), userID)
	n := 0
	for _, s := range sessions {
		if s.IsActive {
			n++
		}
	}
	return n
}

// failingRepo fails every call with err.
type failingRepo struct {
	err error
}

func (f failingRepo) CreateSession(context.Context, *domain.Session) error { return f.err }
func (f failingRepo) GetSessionByID(context.Context, string) (*domain.Session, error) {
	return nil, f.err
}
func (f failingRepo) GetSessionsByUserID(context.Context, int64) ([]*domain.Session, error) {
	return nil, f.err
}
func (f failingRepo) GetAllSessions(context.Context) ([]*domain.Session, error) { return nil, f.err }
func (f failingRepo) UpdateSession(context.Context, string, domain.SessionPatch) error {
	return f.err
}
func (f failingRepo) DeleteSession(context.Context, string) error { return f.err }

var errStoreDown = errors.New("store down")

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(repo SessionRepository, clock *fakeClock, opts ...Option) *SessionService {
	base := []Option{WithClock(clock.Now), WithLogger(logger.Nop())}
	return NewSessionService(repo, append(base, opts...)...)
}

// sessionAt builds a stored session for user created at the given instant.
func sessionAt(id string, userID int64, created time.Time) *domain.Session {
	return domain.NewSession(id, userID, domain.Metadata{}, created)
}
