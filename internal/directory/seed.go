package directory

import (
	"context"
	"errors"
	"fmt"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// SeedStores is the bootstrap store catalog.
var SeedStores = []domain.Store{
	{ID: "STORE-001", Name: "Sucursal Centro", Address: "Av. Corrientes 1234", Lat: -34.603722, Lng: -58.381592},
	{ID: "STORE-002", Name: "Sucursal Norte", Address: "Av. Santa Fe 4500", Lat: -34.576837, Lng: -58.423405},
	{ID: "STORE-003", Name: "Sucursal Sur", Address: "Av. Cabildo 2000", Lat: -34.561492, Lng: -58.456391},
}

// SeedUsers is the bootstrap user registry. Reference photos are generated
// avatars, so verification for these users runs in liveness-only mode until a
// real photo is uploaded.
var SeedUsers = []domain.User{
	{
		Username:        "auditor",
		Password:        "1234",
		FullName:        "Juan Pérez",
		Role:            domain.RoleAuditor,
		JobTitle:        "Auditor Senior de Campo",
		PhotoURL:        "https://ui-avatars.com/api/?name=Juan+Perez&background=FF5100&color=fff&size=256",
		RequiredUniform: "Buzo o campera negra",
		AssignedStores:  []string{"STORE-001", "STORE-002"},
	},
	{
		Username:        "manager",
		Password:        "admin",
		FullName:        "Maria González",
		Role:            domain.RoleManager,
		JobTitle:        "Gerente Regional",
		PhotoURL:        "https://ui-avatars.com/api/?name=Maria+G&background=0D8ABC&color=fff&size=256",
		RequiredUniform: "Saco o ropa formal",
		AssignedStores:  []string{"STORE-001"},
	},
	{
		Username:        "admin",
		Password:        "admin123",
		FullName:        "Soporte IT",
		Role:            domain.RoleAdmin,
		JobTitle:        "Administrador del Sistema",
		PhotoURL:        "https://ui-avatars.com/api/?name=Admin+IT&background=333&color=fff&size=256",
		RequiredUniform: "Sin restricción",
	},
}

// Seed inserts the bootstrap data, skipping records that already exist, and
// loads the caches.
func (s *Service) Seed(ctx context.Context) error {
	for _, store := range SeedStores {
		if err := s.stores.Insert(ctx, store); err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return fmt.Errorf("seed store %s: %w", store.ID, err)
		}
	}
	for _, user := range SeedUsers {
		if err := s.users.Insert(ctx, user); err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return fmt.Errorf("seed user %s: %w", user.Username, err)
		}
	}
	return s.Refresh(ctx)
}
