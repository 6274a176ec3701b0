package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nwehrle/memoloom/internal/model/memo"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps the in-memory map from DM channel ID to the session running
// there. All mutation happens under the store lock, so interleaved events
// on the same channel cannot lose updates; events on different channels
// never block each other beyond the map access itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]memo.Session
}

// NewStore bootstraps an empty in-memory store. Sessions live for exactly
// one memo round, so nothing here survives a restart.
func NewStore() *Store {
	return &Store{sessions: make(map[string]memo.Session)}
}

// Create installs a fresh session for the channel, replacing any stale one.
// The returned session carries a generated ID used for log correlation.
func (s *Store) Create(channelID string, initial memo.Session) memo.Session {
	initial.ID = uuid.NewString()
	if initial.CreatedAt.IsZero() {
		initial.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.sessions[channelID] = initial
	s.mu.Unlock()

	return initial
}

// Get retrieves the session for a channel.
func (s *Store) Get(channelID string) (memo.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[channelID]
	return session, ok
}

// Update applies mutate to the channel's session under the store lock.
func (s *Store) Update(channelID string, mutate func(*memo.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[channelID]
	if !ok {
		return ErrSessionNotFound
	}
	mutate(&session)
	s.sessions[channelID] = session
	return nil
}

// Delete removes the channel's session. Deleting an absent session is a
// no-op so cancellation can race completion safely.
func (s *Store) Delete(channelID string) {
	s.mu.Lock()
	delete(s.sessions, channelID)
	s.mu.Unlock()
}

// Len reports how many dialogues are currently in flight.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
