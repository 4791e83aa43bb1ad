package store

import (
	"context"
	"sync"
	"time"

	"github.com/judgegodwins/pericon-server/models"
)

type memoryEntry struct {
	mu   sync.Mutex
	room *models.Room
}

// MemoryStore is an in-process Store. Each room has its own lock so unrelated
// rooms never wait on each other.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]*memoryEntry
	active map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[string]*memoryEntry),
		active: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) entry(id string, create bool) (*memoryEntry, bool) {
	s.mu.RLock()
	e, ok := s.rooms[id]
	s.mu.RUnlock()

	if ok || !create {
		return e, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another goroutine may have created it between the two locks
	if e, ok = s.rooms[id]; ok {
		return e, true
	}

	e = &memoryEntry{room: models.NewRoom(id)}
	e.room.UpdatedAt = s.now()
	s.rooms[id] = e
	return e, true
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Room, error) {
	e, ok := s.entry(id, false)
	if !ok {
		return nil, ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.room == nil {
		return nil, ErrRoomNotFound
	}
	return e.room.Clone(), nil
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, id string) (*models.Room, error) {
	return s.Update(ctx, id, func(*models.Room) error { return nil })
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.Room, error) {
	for {
		e, _ := s.entry(id, true)

		e.mu.Lock()
		if e.room == nil {
			// swept while we were waiting for the lock; start over on a fresh entry
			e.mu.Unlock()
			continue
		}

		if err := ctx.Err(); err != nil {
			e.mu.Unlock()
			return nil, err
		}

		working := e.room.Clone()
		if err := fn(working); err != nil {
			e.mu.Unlock()
			return nil, err
		}

		working.UpdatedAt = s.now()
		e.room = working

		// a room opened by id, not by the matchmaker, claims its code here
		s.mu.Lock()
		s.active[id] = working.UpdatedAt
		s.mu.Unlock()

		snapshot := working.Clone()
		e.mu.Unlock()
		return snapshot, nil
	}
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.rooms[id]
	delete(s.rooms, id)
	delete(s.active, id)
	s.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.room = nil
		e.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) Reserve(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.active[code]; taken {
		return false, nil
	}
	s.active[code] = s.now()
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, code)
	return nil
}

// Sweep removes rooms and reserved codes not touched within the TTL.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, e := range s.rooms {
		// a room being updated right now is not idle
		if !e.mu.TryLock() {
			continue
		}
		if e.room.UpdatedAt.Before(cutoff) {
			e.room = nil
			removed++
			delete(s.rooms, id)
			delete(s.active, id)
		}
		e.mu.Unlock()
	}

	for code, touched := range s.active {
		if _, hasRoom := s.rooms[code]; !hasRoom && touched.Before(cutoff) {
			delete(s.active, code)
		}
	}
	s.mu.Unlock()

	return removed, nil
}
