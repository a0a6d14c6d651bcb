package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/testseries/internal/attempt"
	authmw "github.com/mind-engage/testseries/internal/auth/middleware"
	"github.com/mind-engage/testseries/internal/rbac"
)

// GET /attempts?test_id=...&user_id=...&limit=50&offset=0 (limit 1..200)
// RBAC:
// - attempt:view-all may filter by any user
// - attempt:view-own only sees their own attempts (user_id is forced to subject)
func ListAttemptsHandler(eng *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		userID := strings.TrimSpace(q.Get("user_id"))
		if !rbac.Can(r.Context(), "attempt:view-all") {
			userID = authmw.SubjectFromContext(r.Context())
		}
		list, err := eng.ListAttempts(r.Context(), attempt.ListOpts{
			TestID: strings.TrimSpace(q.Get("test_id")),
			UserID: userID,
			Limit:  clampLimit(parseIntDefault(q.Get("limit"), 50)),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

const maxListLimit = 200

func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
