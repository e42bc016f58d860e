// Package store holds the audit persistence implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// MemoryAuditStore keeps audits in memory.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records map[string]domain.AuditRecord
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{records: make(map[string]domain.AuditRecord)}
}

func (s *MemoryAuditStore) Insert(_ context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = record
	return nil
}

func (s *MemoryAuditStore) List(_ context.Context) ([]domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
