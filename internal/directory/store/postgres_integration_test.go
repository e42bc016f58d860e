//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/directory/store"
	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/testutil/containers"
)

func TestPostgresUserStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	s := store.NewPostgresUserStore(pg.DB)

	user := domain.User{
		Username:        "jperez",
		Password:        "1234",
		FullName:        "Juan Pérez",
		Role:            domain.RoleAuditor,
		JobTitle:        "Auditor de Tiendas",
		PhotoURL:        "https://photos.example/jperez.jpg",
		RequiredUniform: "Buzo o campera negra",
		AssignedStores:  []string{"STORE-001", "STORE-002"},
	}
	require.NoError(t, s.Insert(ctx, user))

	t.Run("duplicate username conflicts", func(t *testing.T) {
		assert.ErrorIs(t, s.Insert(ctx, user), sentinel.ErrConflict)
	})

	t.Run("get round-trips the array column", func(t *testing.T) {
		got, err := s.Get(ctx, "jperez")
		require.NoError(t, err)
		assert.Equal(t, user.FullName, got.FullName)
		assert.Equal(t, user.Role, got.Role)
		assert.Equal(t, user.AssignedStores, got.AssignedStores)
	})

	t.Run("update replaces assignments", func(t *testing.T) {
		user.AssignedStores = []string{"STORE-003"}
		require.NoError(t, s.Update(ctx, user))
		got, err := s.Get(ctx, "jperez")
		require.NoError(t, err)
		assert.Equal(t, []string{"STORE-003"}, got.AssignedStores)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := s.Get(ctx, "nadie")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, domain.User{Username: "nadie"}), sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "nadie"), sentinel.ErrNotFound)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "jperez"))
		users, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}

func TestPostgresStoreStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	s := store.NewPostgresStoreStore(pg.DB)

	centro := domain.Store{
		ID: "STORE-001", Name: "Sucursal Centro",
		Address: "Av. Corrientes 1234", Lat: -34.603722, Lng: -58.381592,
	}
	require.NoError(t, s.Insert(ctx, centro))
	assert.ErrorIs(t, s.Insert(ctx, centro), sentinel.ErrConflict)

	got, err := s.Get(ctx, "STORE-001")
	require.NoError(t, err)
	assert.Equal(t, centro, got)

	centro.Name = "Sucursal Centro (remodelada)"
	require.NoError(t, s.Update(ctx, centro))
	got, err = s.Get(ctx, "STORE-001")
	require.NoError(t, err)
	assert.Equal(t, centro.Name, got.Name)

	require.NoError(t, s.Delete(ctx, "STORE-001"))
	_, err = s.Get(ctx, "STORE-001")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
