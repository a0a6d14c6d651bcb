package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/testseries/internal/attempt"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps engine errors to status codes. Store failures are 503 so
// clients know a retry is safe.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attempt.ErrTestNotFound), errors.Is(err, attempt.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, attempt.ErrInvalidQuestion):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, attempt.ErrMissingUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, attempt.ErrStoreUnavailable):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Retry-After", "1")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
