// Package store holds the directory persistence implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// MemoryUserStore keeps profiles in memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]domain.User)}
}

func copyUser(u domain.User) domain.User {
	stores := make([]string, len(u.AssignedStores))
	copy(stores, u.AssignedStores)
	u.AssignedStores = stores
	return u
}

func (s *MemoryUserStore) Insert(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return sentinel.ErrConflict
	}
	s.users[user.Username] = copyUser(user)
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; !exists {
		return sentinel.ErrNotFound
	}
	s.users[user.Username] = copyUser(user)
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.users, username)
	return nil
}

func (s *MemoryUserStore) Get(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return domain.User{}, sentinel.ErrNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// MemoryStoreStore keeps store records in memory.
type MemoryStoreStore struct {
	mu     sync.RWMutex
	stores map[string]domain.Store
}

func NewMemoryStoreStore() *MemoryStoreStore {
	return &MemoryStoreStore{stores: make(map[string]domain.Store)}
}

func (s *MemoryStoreStore) Insert(_ context.Context, store domain.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stores[store.ID]; exists {
		return sentinel.ErrConflict
	}
	s.stores[store.ID] = store
	return nil
}

func (s *MemoryStoreStore) Update(_ context.Context, store domain.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stores[store.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.stores[store.ID] = store
	return nil
}

func (s *MemoryStoreStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stores[id]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.stores, id)
	return nil
}

func (s *MemoryStoreStore) Get(_ context.Context, id string) (domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.stores[id]
	if !ok {
		return domain.Store{}, sentinel.ErrNotFound
	}
	return store, nil
}

func (s *MemoryStoreStore) List(_ context.Context) ([]domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
