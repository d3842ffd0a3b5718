package http

import (
	"log/slog"
	"net/http"
	"time"
)

const sessionCookieName = "trackr_session"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", nil)
	case http.MethodPost:
		s.handleLoginPost(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	session, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		slog.WarnContext(r.Context(), "Login failed", "email", email, "error", err)
		UnprocessableEntityError(errorMessage(err, "")).Write(w)
		return
	}

	s.setSessionCookie(w, session.Token, session.ExpiresAt)
	NewHTMXResponse().Header("HX-Redirect", "/").Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", nil)
	case http.MethodPost:
		s.handleRegisterPost(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	userID, err := s.auth.Register(r.Context(), email, password)
	if err != nil {
		UnprocessableEntityError(errorMessage(err, "")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", userID)

	// Log the new user straight in.
	session, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		NewHTMXResponse().Header("HX-Redirect", "/login").Write(w)
		return
	}

	s.setSessionCookie(w, session.Token, session.ExpiresAt)
	NewHTMXResponse().Header("HX-Redirect", "/").Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.WarnContext(r.Context(), "Logout failed", "error", err)
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
