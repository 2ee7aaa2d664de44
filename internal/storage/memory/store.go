package memory

import (
	"context"
	"sync"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/pkg/cmap"
)

var _ service.SessionRepository = (*Store)(nil)

// Store provides in-memory session storage indexed by session and user.
type Store struct {
	// Primary index: SessionID -> Session
	sessions *cmap.Map[string, *domain.Session]

	// Secondary index: UserID -> set of SessionIDs
	userIndex *UserIndex

	// Serializes Create and Delete across both indexes.
	mu sync.Mutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		sessions:  cmap.New[string, *domain.Session](),
		userIndex: NewUserIndex(),
	}
}

// CreateSession stores a new session.
func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessions.SetIfAbsent(session.ID, session.Clone()) {
		return domain.ErrSessionConflict
	}
	s.userIndex.Add(session.UserID, session.ID)

	return nil
}

// GetSessionByID retrieves a session by ID.
func (s *Store) GetSessionByID(_ context.Context, id string) (*domain.Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// GetSessionsByUserID returns all sessions of a user, oldest first.
func (s *Store) GetSessionsByUserID(_ context.Context, userID int64) ([]*domain.Session, error) {
	ids := s.userIndex.Get(userID)
	result := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		if session, ok := s.sessions.Get(id); ok {
			result = append(result, session.Clone())
		}
	}
	domain.SortByCreation(result)
	return result, nil
}

// GetAllSessions returns every stored session, oldest first.
func (s *Store) GetAllSessions(_ context.Context) ([]*domain.Session, error) {
	all := s.sessions.Values()
	result := make([]*domain.Session, len(all))
	for i, session := range all {
		result[i] = session.Clone()
	}
	domain.SortByCreation(result)
	return result, nil
}

// UpdateSession applies patch to the stored session atomically.
func (s *Store) UpdateSession(_ context.Context, id string, patch domain.SessionPatch) error {
	found, err := s.sessions.Update(id, func(current *domain.Session) (*domain.Session, error) {
		next := current.Clone()
		if err := patch.Apply(next); err != nil {
			return current, err
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions.Pop(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.userIndex.Remove(session.UserID, id)

	return nil
}

// Count returns the number of stored and active sessions.
func (s *Store) Count(_ context.Context) (total, active int, err error) {
	s.sessions.Range(func(_ string, session *domain.Session) bool {
		total++
		if session.IsActive {
			active++
		}
		return true
	})
	return total, active, nil
}

// Close releases nothing; it exists so all backends share a lifecycle.
func (s *Store) Close() error {
	return nil
}
