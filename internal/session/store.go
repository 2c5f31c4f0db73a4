// Package session keeps the live widget sessions. Sessions are in-memory
// only; history does not survive a restart, clients reseed via reset.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"parla-backend/internal/chat"
)

type Session struct {
	ID           uuid.UUID
	Conversation *chat.Conversation
	CreatedAt    time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

// NewStore builds a store that evicts sessions idle longer than ttl.
func NewStore(ttl time.Duration) *Store {
	st := &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(ttl)
			st.mu.Lock()
			for id, s := range st.sessions {
				if time.Since(s.idleSince()) > ttl {
					delete(st.sessions, id)
				}
			}
			st.mu.Unlock()
		}
	}()

	return st
}

func (st *Store) Create(conv *chat.Conversation) *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New(),
		Conversation: conv,
		CreatedAt:    now,
		lastSeen:     now,
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session and refreshes its idle timer.
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Has reports whether the session exists without refreshing its idle timer.
func (st *Store) Has(id uuid.UUID) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.sessions[id]
	return ok
}

func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
