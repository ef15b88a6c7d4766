package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
)

// scheduleSession is one student's selector plus the context it was opened with. mu serialises
// every selector access; the selector itself is a single-threaded reducer.
type scheduleSession struct {
	mu sync.Mutex

	id           string
	courseID     string
	courseTitle  string
	enrollmentID string
	ownerID      string
	timezone     string
	selector     *scheduler.Selector
	seed         *sessionSeed
	// claimed is set while a confirmation is being persisted.
	claimed bool
}

// sessionSeed is an existing enrollment's pattern, applied once availability arrives.
type sessionSeed struct {
	teacherID string
	pattern   []scheduler.WeeklySlot
	recurring bool
}

type sessionEntry struct {
	session   *scheduleSession
	touchedAt time.Time
}

// ScheduleSessionStore keeps selector sessions in memory with a sliding TTL.
type ScheduleSessionStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*sessionEntry
}

// NewScheduleSessionStore builds a store; sessions idle longer than ttl are dropped.
func NewScheduleSessionStore(ttl time.Duration) *ScheduleSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ScheduleSessionStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*sessionEntry),
	}
}

// Save registers a session and returns its expiry.
func (s *ScheduleSessionStore) Save(session *scheduleSession) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.items[session.id] = &sessionEntry{session: session, touchedAt: now}
	return now.Add(s.ttl)
}

// Get returns a live session and extends its lifetime.
func (s *ScheduleSessionStore) Get(id string) (*scheduleSession, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return nil, time.Time{}, false
	}
	now := s.now()
	if now.Sub(entry.touchedAt) > s.ttl {
		delete(s.items, id)
		return nil, time.Time{}, false
	}
	entry.touchedAt = now
	return entry.session, now.Add(s.ttl), true
}

// peek returns a live session without extending it.
func (s *ScheduleSessionStore) peek(id string) (*scheduleSession, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.items[id]
	if !ok || s.now().Sub(entry.touchedAt) > s.ttl {
		return nil, time.Time{}, false
	}
	return entry.session, entry.touchedAt.Add(s.ttl), true
}

// Delete drops a session.
func (s *ScheduleSessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *ScheduleSessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *ScheduleSessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.items {
		if now.Sub(entry.touchedAt) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps on every interval until ctx is done. onSweep may be nil.
func (s *ScheduleSessionStore) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(removed, remaining int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed, s.Len())
			}
		}
	}
}
