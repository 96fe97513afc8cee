package server

import (
	"context"
	"net/http"
	"time"

	"fileshare/internal/audit"
	"fileshare/internal/auth"
)

type sessionKey struct{}

// sessionCookie returns the raw session cookie value stored by requireSession.
func sessionCookie(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey{}).(string)
	return v
}

// requireSession sends unauthenticated browsers to the login page.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(auth.CookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if _, ok := s.sessions.Authenticate(c.Value); !ok {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAPIKey enforces X-API-Key. A missing server key is reported as a
// server error before the caller's key is inspected.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.creds.RequireAPIKey(r.Header.Get("X-API-Key")); err != nil {
			s.writeAPIError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleLogin serves GET and POST /login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		if _, ok := s.sessions.Authenticate(c.Value); ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	if r.Method != http.MethodPost {
		s.renderLogin(w, r, http.StatusOK, "")
		return
	}

	op, err := s.creds.Login(r.PostFormValue("username"), r.PostFormValue("password"))
	s.metrics.RecordLoginAttempt(err == nil)
	s.record(r, audit.ActionLogin, audit.SurfaceSession, r.PostFormValue("username"), err)
	if err != nil {
		s.requestLogger(r).Warn("login failed")
		s.renderLogin(w, r, http.StatusOK, "Invalid username or password")
		return
	}

	token, exp, err := s.sessions.Create(op)
	if err != nil {
		s.requestLogger(r).Error("create session", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.SecureCookies,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout destroys the session server-side and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(sessionCookie(r.Context()))
	s.record(r, audit.ActionLogout, audit.SurfaceSession, "", nil)
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.SecureCookies,
	})
}
