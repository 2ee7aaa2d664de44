package memory

import (
	"sync"

	"github.com/fintrackr/fintrackr/pkg/cmap"
)

// SessionSet is a concurrent-safe set of session IDs.
type SessionSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewSessionSet creates a new session set.
func NewSessionSet() *SessionSet {
	return &SessionSet{items: make(map[string]struct{})}
}

// Add adds a session ID to the set.
func (s *SessionSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

// Remove removes a session ID from the set.
func (s *SessionSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Contains checks if a session ID is in the set.
func (s *SessionSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Len returns the number of items in the set.
func (s *SessionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a copy of all session IDs.
func (s *SessionSet) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]string, 0, len(s.items))
	for id := range s.items {
		items = append(items, id)
	}
	return items
}

// UserIndex maps a UserID to the set of its session IDs.
type UserIndex struct {
	index *cmap.Map[int64, *SessionSet]
}

// NewUserIndex creates a new user index.
func NewUserIndex() *UserIndex {
	return &UserIndex{index: cmap.New[int64, *SessionSet]()}
}

// Add adds a session to the user's session set.
func (i *UserIndex) Add(userID int64, sessionID string) {
	i.index.SetIfAbsent(userID, NewSessionSet())
	if set, ok := i.index.Get(userID); ok {
		set.Add(sessionID)
	}
}

// Remove removes a session from the user's session set.
// Empty sets are dropped.
func (i *UserIndex) Remove(userID int64, sessionID string) {
	set, ok := i.index.Get(userID)
	if !ok {
		return
	}
	set.Remove(sessionID)
	if set.Len() == 0 {
		i.index.Delete(userID)
	}
}

// Get returns all session IDs for a user.
func (i *UserIndex) Get(userID int64) []string {
	set, ok := i.index.Get(userID)
	if !ok {
		return nil
	}
	return set.Items()
}

// Count returns the number of sessions for a user.
func (i *UserIndex) Count(userID int64) int {
	set, ok := i.index.Get(userID)
	if !ok {
		return 0
	}
	return set.Len()
}

// Users returns the number of users with at least one session.
func (i *UserIndex) Users() int {
	return i.index.Count()
}
