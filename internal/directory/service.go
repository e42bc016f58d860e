// Package directory manages the user and store registries. Reads for the
// attendance flow hit the store directly; list views are served from caches
// refreshed wholesale after every mutation and periodically in the
// background.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"timeclock/internal/domain"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/platform/sentinel"
)

// UserStore persists user profiles keyed by username.
type UserStore interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, username string) error
	Get(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// StoreStore persists store records keyed by id.
type StoreStore interface {
	Insert(ctx context.Context, store domain.Store) error
	Update(ctx context.Context, store domain.Store) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.Store, error)
	List(ctx context.Context) ([]domain.Store, error)
}

type Service struct {
	users  UserStore
	stores StoreStore
	logger *slog.Logger

	mu         sync.RWMutex
	userCache  []domain.User
	storeCache []domain.Store
}

func NewService(users UserStore, stores StoreStore, logger *slog.Logger) *Service {
	return &Service{users: users, stores: stores, logger: logger}
}

// User resolves a username, for the credential gate.
func (s *Service) User(ctx context.Context, username string) (domain.User, error) {
	return s.users.Get(ctx, username)
}

// Store resolves a store id, for the attendance flow.
func (s *Service) Store(ctx context.Context, id string) (domain.Store, error) {
	return s.stores.Get(ctx, id)
}

// StoresFor returns the user's assigned stores in catalog order.
func (s *Service) StoresFor(user domain.User) []domain.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Store
	for _, st := range s.storeCache {
		if user.IsAssigned(st.ID) {
			out = append(out, st)
		}
	}
	return out
}

// ListUsers returns the cached user list with passwords cleared.
func (s *Service) ListUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.userCache))
	for _, u := range s.userCache {
		out = append(out, u.Sanitized())
	}
	return out
}

// ListStores returns the cached store list.
func (s *Service) ListStores() []domain.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Store, len(s.storeCache))
	copy(out, s.storeCache)
	return out
}

func (s *Service) CreateUser(ctx context.Context, user domain.User) error {
	if err := validateUser(user, true); err != nil {
		return err
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domainerrors.New(domainerrors.CodeConflict, "El nombre de usuario ya existe.")
		}
		return fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.Username)
	return s.Refresh(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, user domain.User) error {
	if err := validateUser(user, false); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "Usuario inexistente.")
		}
		return fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user updated", "user_id", user.Username)
	return s.Refresh(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "Usuario inexistente.")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", username)
	return s.Refresh(ctx)
}

func (s *Service) CreateStore(ctx context.Context, store domain.Store) error {
	if err := validateStore(store); err != nil {
		return err
	}
	if err := s.stores.Insert(ctx, store); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domainerrors.New(domainerrors.CodeConflict, "El identificador de tienda ya existe.")
		}
		return fmt.Errorf("create store: %w", err)
	}
	s.logger.Info("store created", "store_id", store.ID)
	return s.Refresh(ctx)
}

func (s *Service) UpdateStore(ctx context.Context, store domain.Store) error {
	if err := validateStore(store); err != nil {
		return err
	}
	if err := s.stores.Update(ctx, store); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "Tienda inexistente.")
		}
		return fmt.Errorf("update store: %w", err)
	}
	s.logger.Info("store updated", "store_id", store.ID)
	return s.Refresh(ctx)
}

func (s *Service) DeleteStore(ctx context.Context, id string) error {
	if err := s.stores.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "Tienda inexistente.")
		}
		return fmt.Errorf("delete store: %w", err)
	}
	s.logger.Info("store deleted", "store_id", id)
	return s.Refresh(ctx)
}

// Refresh reloads both caches wholesale. Users and stores load concurrently;
// either failure aborts the swap so the caches never go half-stale.
func (s *Service) Refresh(ctx context.Context) error {
	var (
		users  []domain.User
		stores []domain.Store
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stores, err = s.stores.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh directory: %w", err)
	}

	s.mu.Lock()
	s.userCache = users
	s.storeCache = stores
	s.mu.Unlock()
	return nil
}

func validateUser(user domain.User, creating bool) error {
	switch {
	case strings.TrimSpace(user.Username) == "":
		return domainerrors.New(domainerrors.CodeBadRequest, "El nombre de usuario es obligatorio.")
	case strings.TrimSpace(user.FullName) == "":
		return domainerrors.New(domainerrors.CodeBadRequest, "El nombre completo es obligatorio.")
	case creating && user.Password == "":
		return domainerrors.New(domainerrors.CodeBadRequest, "La contraseña es obligatoria.")
	case !user.Role.Valid():
		return domainerrors.New(domainerrors.CodeBadRequest, "Rol inválido.")
	}
	return nil
}

func validateStore(store domain.Store) error {
	switch {
	case strings.TrimSpace(store.ID) == "":
		return domainerrors.New(domainerrors.CodeBadRequest, "El identificador de tienda es obligatorio.")
	case strings.TrimSpace(store.Name) == "":
		return domainerrors.New(domainerrors.CodeBadRequest, "El nombre de la tienda es obligatorio.")
	}
	return nil
}
