package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionStore is the process-wide registry of live sessions. It owns session
// lifetime: Destroy is the only place a session's timers are torn down.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewSessionStore returns an empty in-memory registry.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Add registers a freshly created session.
func (st *SessionStore) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get retrieves a session if it exists.
func (st *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Destroy removes the session from the registry and cancels its timers.
// Subsequent reads observe NotFound.
func (st *SessionStore) Destroy(id uuid.UUID) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
}

// JoinRandom seats the player in the first open session: not started, not
// counting down, not full. No fairness across open rooms is promised. The
// join itself revalidates under the session lock, so a room that fills up
// between the scan and the join is simply skipped.
func (st *SessionStore) JoinRandom(name string) (*Session, uuid.UUID, error) {
	if name == "" {
		return nil, uuid.Nil, fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	st.mu.Lock()
	candidates := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		candidates = append(candidates, s)
	}
	st.mu.Unlock()

	for _, s := range candidates {
		if !s.Joinable() {
			continue
		}
		pid, err := s.Join(name)
		if err != nil {
			continue
		}
		return s, pid, nil
	}
	return nil, uuid.Nil, fmt.Errorf("%w: no open session", ErrNotFound)
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
