package session

import "sync"

// Store holds one session per active actor. The outer mutex only guards
// the map; each entry carries its own lock so that work on one actor
// never blocks work on another.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	mu   sync.Mutex
	sess Session
}

// NewStore returns an empty in-memory session store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

func (s *Store) entryFor(actorID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[actorID]
	if !ok {
		e = &entry{sess: Session{ActorID: actorID, Role: RoleCustomer, State: StateIdle}}
		s.entries[actorID] = e
	}
	return e
}

// Do runs fn with exclusive access to the actor's session for the whole
// duration of the call, creating a fresh idle session for a previously
// unseen actor. Every mutation of a session must go through here; the
// per-entry lock is what serializes concurrently delivered events for
// the same actor.
func (s *Store) Do(actorID int64, fn func(*Session) error) error {
	e := s.entryFor(actorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.sess)
}

// Get returns a copy of the actor's session, or a fresh idle session for
// an unseen actor. The copy shares no ownership with the store; it is a
// read-only view and never fails.
func (s *Store) Get(actorID int64) Session {
	e := s.entryFor(actorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// Clear resets the actor's data and returns the state to idle.
func (s *Store) Clear(actorID int64) {
	e := s.entryFor(actorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.Reset()
}
