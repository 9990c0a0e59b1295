package service

import "sync"

// SessionRegistry hands out a generation per search session. A batch whose
// generation is no longer current when it finishes has been superseded (or
// cancelled) and its output is dropped.
//
// Generations come from one counter shared by all sessions, so a session that
// was forgotten and reused never hands out a number an old batch still holds.
type SessionRegistry struct {
	mu          sync.Mutex
	next        uint64
	generations map[string]uint64
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{generations: make(map[string]uint64)}
}

// Begin starts a new batch for session and returns its generation.
func (r *SessionRegistry) Begin(session string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.generations[session] = r.next
	return r.next
}

// Cancel invalidates whatever batch is running for session. Generations start
// at 1, so a dropped entry never matches a live batch.
func (r *SessionRegistry) Cancel(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.generations, session)
}

func (r *SessionRegistry) IsCurrent(session string, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[session] == generation
}

// Finish drops the session if generation is still its current batch.
// A newer batch keeps the entry.
func (r *SessionRegistry) Finish(session string, generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[session] == generation {
		delete(r.generations, session)
	}
}

// Len reports how many sessions have a batch in flight.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.generations)
}
