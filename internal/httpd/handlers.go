package httpd

import (
	"errors"
	"net/http"

	"github.com/wardenauth/warden"
	"github.com/wardenauth/warden/middleware"
)

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"message": "Bienvenue"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	identity, err := s.engine.Register(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, warden.ErrDuplicateEmail) {
			s.respond(w, http.StatusBadRequest, map[string]string{"message": "email already registered"})
			return
		}
		if errors.Is(err, warden.ErrInvalidCredentials) || errors.Is(err, warden.ErrPasswordPolicy) {
			s.respond(w, http.StatusBadRequest, map[string]string{"message": "invalid email or password"})
			return
		}
		s.fail(w, r, err, 0)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{
		"email":   identity.Email,
		"message": "user created",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	sessionToken, err := s.engine.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, warden.ErrInvalidCredentials) {
			s.fail(w, r, err, http.StatusUnauthorized)
			return
		}
		s.fail(w, r, err, 0)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.engine.SessionCookieName(),
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.respond(w, http.StatusOK, map[string]string{
		"email":   email,
		"message": "logged in",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, err := s.sessionIdentity(r)
	if err != nil {
		s.fail(w, r, err, 0)
		return
	}
	if identity == nil {
		s.fail(w, r, warden.ErrNoSession, http.StatusForbidden)
		return
	}

	if err := s.engine.Logout(r.Context(), identity.ID); err != nil {
		s.fail(w, r, err, 0)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   s.engine.SessionCookieName(),
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	// Redirect-equivalent: answer with the welcome body.
	s.respond(w, http.StatusOK, map[string]string{"message": "Bienvenue"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := s.sessionIdentity(r)
	if err != nil {
		s.fail(w, r, err, 0)
		return
	}
	if identity == nil {
		s.fail(w, r, warden.ErrNoSession, http.StatusForbidden)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"email": identity.Email})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	resetToken, err := s.engine.RequestPasswordReset(r.Context(), email)
	if err != nil {
		if errors.Is(err, warden.ErrNotFound) {
			s.fail(w, r, err, http.StatusNotFound)
			return
		}
		s.fail(w, r, err, 0)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{
		"email":       email,
		"reset_token": resetToken,
	})
}

func (s *Server) handleResetUpdate(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	resetToken := r.PostFormValue("reset_token")
	newPassword := r.PostFormValue("new_password")

	err := s.engine.ConsumePasswordReset(r.Context(), resetToken, newPassword)
	if err != nil {
		if errors.Is(err, warden.ErrInvalidResetToken) || errors.Is(err, warden.ErrPasswordPolicy) {
			s.fail(w, r, err, http.StatusForbidden)
			return
		}
		s.fail(w, r, err, 0)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{
		"email":   email,
		"message": "Password updated",
	})
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		s.fail(w, r, warden.ErrNoSession, http.StatusForbidden)
		return
	}

	accessToken, err := s.engine.IssueAccessToken(r.Context(), identity)
	if err != nil {
		if errors.Is(err, warden.ErrAccessTokensDisabled) {
			s.fail(w, r, err, http.StatusNotFound)
			return
		}
		s.fail(w, r, err, 0)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// sessionIdentity resolves the session cookie directly. Used by the
// routes that live on gate-exempt paths but still require a session,
// where the contract is a plain 403. A nil identity with a nil error
// means no usable session; a non-nil error is a storage failure that
// must surface as a 5xx.
func (s *Server) sessionIdentity(r *http.Request) (*warden.Identity, error) {
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		return identity, nil
	}
	cookie, err := r.Cookie(s.engine.SessionCookieName())
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	identity, err := s.engine.ResolveSession(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, warden.ErrStorage) {
			return nil, err
		}
		return nil, nil
	}
	return identity, nil
}
