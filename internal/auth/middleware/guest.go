package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const guestCookie = "ts_guest_id"

// GuestLoginHandler issues a student token for an anonymous test taker. The
// guest id lives in a cookie so the same browser resumes the same attempts.
func GuestLoginHandler(a *AuthService) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Subject     string `json:"subject"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sub := ""
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			sub = c.Value
		}
		if sub == "" {
			sub = "guest|" + uuid.NewString()
		}
		tok, err := a.IssueJWT(sub, "student")
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    sub,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Subject: sub})
	}
}
