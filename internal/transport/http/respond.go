// Package httptransport is the thin HTTP layer over the attendance flow and
// the back-office services. Handlers decode, delegate, and encode; business
// rules live in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"timeclock/internal/storeaudit"
	"timeclock/pkg/domainerrors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError translates service errors into the JSON error envelope. Messages
// from coded domain errors are user-facing; everything else is masked.
func writeError(w http.ResponseWriter, err error) {
	var retryable *storeaudit.RetryableError
	if errors.As(err, &retryable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     string(domainerrors.CodeUnavailable),
			"message":   retryable.Error(),
			"retryable": true,
		})
		return
	}

	var de *domainerrors.Error
	if errors.As(err, &de) {
		writeJSON(w, domainerrors.ToHTTPStatus(de.Code), map[string]any{
			"error":   string(de.Code),
			"message": de.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":   string(domainerrors.CodeInternal),
		"message": "Error interno.",
	})
}
