package server

import (
	"context"
	"net/http"
)

type ctxKey int

const userKey ctxKey = 0

// currentUser returns the logged-in user for the request, or "".
func currentUser(r *http.Request) string {
	u, _ := r.Context().Value(userKey).(string)
	return u
}

// loadSession resolves the session cookie to a user, if any.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.config.Server.CookieName)
		if err == nil && c.Value != "" {
			if sess, err := s.sessions.Lookup(r.Context(), c.Value); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, sess.User))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireUserJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == "" {
			s.respondError(w, http.StatusForbidden, "login required", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user string) error {
	sess, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.Server.CookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	return nil
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.config.Server.CookieName); err == nil {
		_ = s.sessions.Delete(r.Context(), c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.Server.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
