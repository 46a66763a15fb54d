package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/auth"
	"github.com/erazemk/afalagi/internal/casestate"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const tokenCookie = "token"

// CookieAuthMiddleware validates the JWT from the cookie, checks token
// revocation, and adds claims to the context. Requests without a valid
// session continue as the anonymous viewer.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(tokenCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ValidateToken(secret, cookie.Value)
			if err != nil {
				clearAuthCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Check if the token has been revoked.
			if claims.ID != "" {
				revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
				if err != nil {
					slog.Error("failed to check token revocation", "error", err)
				}
				if err != nil || revoked {
					clearAuthCookie(w)
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin sends anonymous viewers to the login page, remembering where
// they were going.
func (s *Server) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetWebClaims(r.Context()) == nil {
			s.flash(w, r, FlashWarning, "Please log in to continue")
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff lets only admins and moderators through.
func (s *Server) RequireStaff(next http.Handler) http.Handler {
	return s.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !casestate.IsAdmin(viewerFrom(r.Context())) {
			s.flash(w, r, FlashError, "Access denied. Admin privileges required.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequestIDMiddleware tags the request with an id that is echoed in the
// response and forwarded to the platform API.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(apiclient.ContextWithRequestID(r.Context(), id)))
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// viewerFrom returns the viewer for the request, anonymous when there is no session.
func viewerFrom(ctx context.Context) model.Viewer {
	if claims := GetWebClaims(ctx); claims != nil {
		return claims.Viewer()
	}
	return model.Anonymous
}
