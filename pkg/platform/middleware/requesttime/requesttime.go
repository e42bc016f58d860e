package requesttime

import (
	"net/http"
	"time"

	"timeclock/pkg/requestcontext"
)

// RequestTime pins a single timestamp to the request context so every store
// write and log entry produced by one request shares the same time. Services
// read it via requestcontext.Now, which keeps them testable with an injected
// clock.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
