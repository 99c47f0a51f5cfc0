package server

import (
	"net/http"
	"net/url"
)

const loginErrorMessage = "invalid email or password"

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		var rawToken string
		if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &rawToken); err == nil {
			if _, err := s.issuer.Parse(rawToken); err == nil {
				s.logger.Info("user is already logged in, redirecting to console")
				http.Redirect(w, r, "/admin", http.StatusSeeOther)
				return
			}
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectLoginError(w, r)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	// Verify collapses every failure mode (unknown email, wrong password,
	// wrong role) into the same error; the response below is identical for
	// all of them.
	identity, err := s.verifier.Verify(r.Context(), email, password)
	if err != nil {
		s.redirectLoginError(w, r)
		return
	}

	signed, err := s.issuer.Issue(identity)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue session token")
		s.redirectLoginError(w, r)
		return
	}

	encrypted, err := s.cookie.Encode(s.config.CookieName, signed)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt session token")
		s.redirectLoginError(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encrypted,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.config.SessionMaxAgeSec,
		Path:     "/",
	})

	s.logger.WithField("user_id", identity.UserID).Info("admin logged in")

	// Post-login navigation always lands on the console.
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Service) redirectLoginError(w http.ResponseWriter, r *http.Request) {
	v := url.Values{}
	v.Set("error", loginErrorMessage)
	http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
}
