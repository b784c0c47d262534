package httpadapter

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

const (
	sessionHeader = "X-Session-Id"
	sessionCookie = "analyzer_session"
)

func sessionIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(sessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// resolveSession looks up the caller's session. With create set, a missing
// or expired session is replaced by a fresh one which is announced through
// both the header and the cookie.
func (rt *Router) resolveSession(w http.ResponseWriter, r *http.Request, create bool) (*domain.Session, error) {
	id := sessionIDFromRequest(r)
	if id != "" {
		session, err := rt.sessions.Get(r.Context(), id)
		if err == nil {
			w.Header().Set(sessionHeader, session.ID)
			return session, nil
		}
		if !domain.IsKind(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		if !create {
			return nil, err
		}
	} else if !create {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "resolve session", errors.New("no session in request"))
	}

	session, err := rt.sessions.Create(r.Context())
	if err != nil {
		return nil, err
	}
	w.Header().Set(sessionHeader, session.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
