package httptransport

import (
	"net/http"
	"strings"

	"timeclock/internal/auth"
	"timeclock/internal/domain"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/requestcontext"
)

// RequireTerminalID demands the X-Terminal-Id header that keys the attendance
// session.
func RequireTerminalID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		terminalID := r.Header.Get("X-Terminal-Id")
		if terminalID == "" {
			writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Falta el identificador de terminal."))
			return
		}
		ctx := requestcontext.WithTerminalID(r.Context(), terminalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards the back-office routes. An admin user's session token
// grants access; the statically configured admin token, when set, works as an
// alternative for automation that has no user account.
func RequireAdmin(authSvc *auth.Service, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && bearer != "" {
				claims, err := authSvc.Validate(r.Context(), bearer)
				if err == nil && claims.Role == domain.RoleAdmin {
					next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
					return
				}
			}
			if token != "" && r.Header.Get("X-Admin-Token") == token {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "Acceso de administrador requerido."))
		})
	}
}

// RequireSession validates the Bearer session token and stashes the claims.
func RequireSession(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "Falta el token de sesión."))
				return
			}
			claims, err := authSvc.Validate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := withClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
