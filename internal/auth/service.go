// Package auth gates credentials and manages app sessions. The credential
// check is a plaintext comparison against the stored profile: an input gate,
// not a security boundary. Identity assurance comes from the biometric
// verification step of the attendance flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timeclock/internal/domain"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/requestcontext"
)

const msgBadCredentials = "Usuario o contraseña incorrectos."

// UserStore resolves usernames to profiles.
type UserStore interface {
	User(ctx context.Context, username string) (domain.User, error)
}

// Session is an issued app session. The employee gets one at terminal login;
// admins get one the same way and use it on the back-office routes. ClientIP
// and UserAgent record which device started the session.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	ClientIP  string      `json:"client_ip,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SessionStore persists issued sessions for validation and logout.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	users    UserStore
	issuer   *TokenIssuer
	sessions SessionStore
	logger   *slog.Logger
}

func NewService(users UserStore, issuer *TokenIssuer, sessions SessionStore, logger *slog.Logger) *Service {
	return &Service{users: users, issuer: issuer, sessions: sessions, logger: logger}
}

// Authenticate resolves the credential pair to a profile. Unknown usernames
// and wrong passwords produce the same message on purpose.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.User(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.User{}, domainerrors.New(domainerrors.CodeUnauthorized, msgBadCredentials)
		}
		return domain.User{}, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "No se pudo validar las credenciales.")
	}
	if user.Password != password {
		return domain.User{}, domainerrors.New(domainerrors.CodeUnauthorized, msgBadCredentials)
	}
	return user, nil
}

// StartSession issues a signed token and records the session.
func (s *Service) StartSession(ctx context.Context, user domain.User) (Session, error) {
	now := requestcontext.Now(ctx)
	sessionID := uuid.NewString()
	token, expiresAt, err := s.issuer.Issue(user, sessionID, now)
	if err != nil {
		return Session{}, fmt.Errorf("issue session token: %w", err)
	}

	session := Session{
		ID:        sessionID,
		Token:     token,
		Username:  user.Username,
		Role:      user.Role,
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("session started",
		"user_id", user.Username, "session_id", session.ID, "client_ip", session.ClientIP)
	return session, nil
}

// Validate parses the token and confirms the session still exists.
func (s *Service) Validate(ctx context.Context, token string) (Claims, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return Claims{}, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "Sesión inválida o expirada.")
	}
	if _, err := s.sessions.Get(ctx, claims.SessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Claims{}, domainerrors.New(domainerrors.CodeUnauthorized, "Sesión cerrada.")
		}
		return Claims{}, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "No se pudo validar la sesión.")
	}
	return claims, nil
}

// EndSession deletes the session; an already-gone session is not an error.
func (s *Service) EndSession(ctx context.Context, token string) error {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
