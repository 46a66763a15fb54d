package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/auth"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/store"
)

type loginPage struct {
	PageData
	Email string
	Next  string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if GetWebClaims(r.Context()) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: s.page(w, r, "Log in"),
		Next:     next,
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	fail := func(status int, message string) {
		data := &loginPage{PageData: s.page(w, r, "Log in"), Email: email, Next: next}
		data.Error = message
		s.Templates.RenderStatus(w, status, "login.html", data)
	}

	if email == "" || password == "" {
		fail(http.StatusUnprocessableEntity, "Please enter your email and password.")
		return
	}

	apiToken, user, err := s.API.Login(r.Context(), email, password)
	if err != nil {
		if apiclient.IsTransient(err) {
			slog.Error("login request failed", "error", err)
			fail(http.StatusBadGateway, "The login service is unavailable. Please try again.")
			return
		}
		slog.Info("login rejected", "email", email, "error", err)
		fail(http.StatusUnauthorized, apiclient.Message(err, "Invalid email or password."))
		return
	}

	viewer, err := model.ViewerFromUser(*user)
	if err != nil {
		slog.Error("login returned an unusable account", "user", user.ID, "error", err)
		fail(http.StatusBadGateway, "Login failed. Please try again.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, viewer, apiToken)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		fail(http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})

	slog.Info("user logged in", "user", viewer.ID, "role", viewer.Role)
	s.flash(w, r, FlashSuccess, "Welcome back!")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke session token", "error", err)
		}
	}
	clearAuthCookie(w)
	s.flash(w, r, FlashSuccess, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
