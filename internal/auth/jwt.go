package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"timeclock/internal/domain"
)

// DefaultSessionTTL bounds how long an app session stays valid.
const DefaultSessionTTL = 12 * time.Hour

// Claims are the JWT payload for an app session.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string      `json:"sid"`
	Role      domain.Role `json:"role"`
	FullName  string      `json:"name"`
}

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenIssuer{key: []byte(signingKey), ttl: ttl}
}

// Issue signs a token for the user, valid from now for the configured TTL.
func (i *TokenIssuer) Issue(user domain.User, sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
		Role:      user.Role,
		FullName:  user.FullName,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates the signature and expiry and returns the claims.
func (i *TokenIssuer) Parse(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	return claims, nil
}
