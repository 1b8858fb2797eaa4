package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader carries the session id for API clients.
const SessionHeader = "X-Session-ID"

// sessionOf returns the request's session id. Without a header or cookie a
// new id is minted and set as a cookie.
func (s *Server) sessionOf(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(s.config.SessionCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, id)
	return id
}
