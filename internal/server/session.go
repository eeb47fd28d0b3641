package server

import (
	"net/http"
)

// CookieName carries the chat session id.
const CookieName = "flowgraph_session"

// resolveSession returns the session id for the request. When the cookie is
// missing or stale a fresh session is created and its cookie returned so
// the caller can send it back.
func (s *Server) resolveSession(r *http.Request) (string, *http.Cookie, error) {
	var current string
	if c, err := r.Cookie(CookieName); err == nil {
		current = c.Value
	}

	id, err := s.sessions.Ensure(r.Context(), current)
	if err != nil {
		return "", nil, err
	}
	if id == current {
		return id, nil, nil
	}
	return id, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// session resolves the session and sets the cookie on w when it changed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, error) {
	id, cookie, err := s.resolveSession(r)
	if err != nil {
		return "", err
	}
	if cookie != nil {
		http.SetCookie(w, cookie)
	}
	return id, nil
}
