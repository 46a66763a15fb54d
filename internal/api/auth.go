package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/auth"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Platform  *apiclient.Client
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type viewerResponse struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  viewerResponse `json:"user"`
}

// Login handles POST /api/auth/login. Credentials are checked by the
// platform API; the returned session token wraps its API token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	apiToken, user, err := h.Platform.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apiclient.IsTransient(err) {
			slog.Error("login request failed", "error", err)
			jsonError(w, http.StatusBadGateway, "login service unavailable")
			return
		}
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, apiclient.Message(err, "invalid credentials"))
		return
	}

	viewer, err := model.ViewerFromUser(*user)
	if err != nil {
		slog.Error("login returned an unusable account", "user", user.ID, "error", err)
		jsonError(w, http.StatusBadGateway, "login failed")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, viewer, apiToken)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", viewer.ID, "role", viewer.Role)
	jsonResponse(w, http.StatusOK, loginResponse{
		Token: token,
		User:  viewerResponse{ID: viewer.ID, Name: viewer.Name, Email: viewer.Email, Role: viewer.Role},
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
	}

	slog.Info("user logged out", "user", claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
