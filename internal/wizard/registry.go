package wizard

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("wizard session not found")

// entry pairs a session with its own lock. The registry lock only guards the
// map and the last access time, so slow work on one session (a commit that
// hits the database or Sheets) never blocks the others.
type entry struct {
	mu      sync.Mutex
	session *Session
	seen    time.Time
}

// Registry holds live sessions in memory. Sessions not accessed for ttl are
// gone: every lookup treats them as missing.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: make(map[string]*entry), ttl: ttl, now: time.Now}
}

// Start creates and stores a new session and returns a copy of it
func (r *Registry) Start() Session {
	s := NewSession()
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.evictLocked(now)
	r.sessions[s.ID] = &entry{session: s, seen: now}
	return *s
}

// Update runs fn on the session under that session's lock, so concurrent
// requests for one session are serialized. The session is returned as a copy.
func (r *Registry) Update(id string, fn func(*Session) error) (Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	err = fn(e.session)
	return *e.session, err
}

// Get returns a copy of the session
func (r *Registry) Get(id string) (Session, error) {
	return r.Update(id, func(*Session) error { return nil })
}

// lookup finds a live session and marks it accessed; expired ones are dropped
func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	e.seen = now
	return e, nil
}

// Remove forgets a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(r.now())
	return len(r.sessions)
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.seen) > r.ttl
}

func (r *Registry) evictLocked(now time.Time) {
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
		}
	}
}
