// Package store holds the time-log persistence implementations. The service
// side defines the interface it consumes; both implementations here satisfy
// it.
package store

import (
	"context"
	"sort"
	"sync"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// MemoryTimeLogStore keeps logs in memory. Used by tests and local dev.
type MemoryTimeLogStore struct {
	mu   sync.RWMutex
	logs map[string]domain.TimeLog
}

func NewMemoryTimeLogStore() *MemoryTimeLogStore {
	return &MemoryTimeLogStore{logs: make(map[string]domain.TimeLog)}
}

// Insert appends one log. Logs are write-once: an existing id is a conflict.
func (s *MemoryTimeLogStore) Insert(_ context.Context, log domain.TimeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.logs[log.ID]; exists {
		return sentinel.ErrConflict
	}
	s.logs[log.ID] = log
	return nil
}

// List returns all logs ordered by timestamp descending.
func (s *MemoryTimeLogStore) List(_ context.Context) ([]domain.TimeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TimeLog, 0, len(s.logs))
	for _, log := range s.logs {
		out = append(out, log)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
