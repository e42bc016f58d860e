package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/domain"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/requestcontext"
)

type stubUserStore struct{ users map[string]domain.User }

func (s *stubUserStore) User(_ context.Context, username string) (domain.User, error) {
	u, ok := s.users[username]
	if !ok {
		return domain.User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func newTestService() *Service {
	users := &stubUserStore{users: map[string]domain.User{
		"jperez": {Username: "jperez", Password: "1234", FullName: "Juan Pérez", Role: domain.RoleAuditor},
	}}
	return NewService(users, NewTokenIssuer("test-signing-key", time.Hour), NewMemorySessionStore(), slog.New(slog.DiscardHandler))
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "jperez", "1234")
		require.NoError(t, err)
		assert.Equal(t, "Juan Pérez", user.FullName)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "jperez", "4321")
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	t.Run("unknown user gets the same message", func(t *testing.T) {
		_, wrongPass := svc.Authenticate(ctx, "jperez", "4321")
		_, unknown := svc.Authenticate(ctx, "ghost", "1234")
		assert.Equal(t, wrongPass.Error(), unknown.Error())
	})
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	user := domain.User{Username: "jperez", FullName: "Juan Pérez", Role: domain.RoleAuditor}

	session, err := svc.StartSession(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "jperez", session.Username)

	claims, err := svc.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "jperez", claims.Subject)
	assert.Equal(t, domain.RoleAuditor, claims.Role)
	assert.Equal(t, session.ID, claims.SessionID)

	require.NoError(t, svc.EndSession(ctx, session.Token))
	_, err = svc.Validate(ctx, session.Token)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))

	// Ending twice is fine.
	require.NoError(t, svc.EndSession(ctx, session.Token))
}

func TestSessionRecordsClientDevice(t *testing.T) {
	svc := newTestService()
	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.7", "Chrome/120 (Android)")
	user := domain.User{Username: "jperez", FullName: "Juan Pérez", Role: domain.RoleAuditor}

	session, err := svc.StartSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", session.ClientIP)
	assert.Equal(t, "Chrome/120 (Android)", session.UserAgent)

	// The stored copy carries the same device record.
	stored, err := svc.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", stored.ClientIP)
	assert.Equal(t, "Chrome/120 (Android)", stored.UserAgent)
}

func TestValidateRejectsGarbageAndForeignTokens(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Validate(ctx, "not-a-token")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))

	// Token signed with a different key.
	foreign := NewTokenIssuer("other-key", time.Hour)
	token, _, err := foreign.Issue(domain.User{Username: "jperez"}, "sid", time.Now())
	require.NoError(t, err)
	_, err = svc.Validate(ctx, token)
	require.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Minute)
	token, expiresAt, err := issuer.Issue(domain.User{Username: "jperez"}, "sid", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)
	assert.True(t, expiresAt.Before(time.Now()))

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	expired := Session{ID: "s1", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, store.Save(ctx, expired))
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	live := Session{ID: "s2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, live))
	got, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ID)

	require.NoError(t, store.Delete(ctx, "s2"))
	assert.ErrorIs(t, store.Delete(ctx, "s2"), sentinel.ErrNotFound)
}
