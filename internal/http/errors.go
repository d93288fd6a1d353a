package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robertarktes/tennis-court-reservations/internal/domain"
)

// writeError maps domain sentinels to status codes. Anything unexpected
// becomes a generic 500 so storage details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	reason := "operation failed"

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		reason = domain.Reason(err)
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		reason = domain.Reason(err)
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		reason = domain.Reason(err)
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		reason = domain.Reason(err)
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		reason = domain.Reason(err)
	case errors.Is(err, domain.ErrSerializationFailure):
		status = http.StatusConflict
		reason = "conflict, try again"
	}

	writeJSON(w, status, map[string]string{"error": reason})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
