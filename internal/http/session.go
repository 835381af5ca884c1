package http

import (
	"net/http"

	"casa/internal/session"
)

// SessionCookie names the cookie carrying the household id.
const SessionCookie = "casa_session"

// household resolves the caller's household, opening a fresh one when the
// cookie is missing or its household has expired. The cookie is (re)issued
// whenever a household is created.
func (s *Server) household(w http.ResponseWriter, r *http.Request) *session.Household {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	h, created := s.sessions.Open(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    h.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h
}
