package admission

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process store. Entries live for the life of the
// process.
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: map[string]time.Time{}}
}

func (s *MemoryStore) Admit(_ context.Context, client string, now time.Time, window time.Duration) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[client]; ok && now.Sub(last) < window {
		return last, false, nil
	}
	s.last[client] = now
	return now, true, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

func (s *MemoryStore) Close() error { return nil }
