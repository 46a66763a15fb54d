package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/afalagi/internal/apiclient"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, platform *apiclient.Client, loc *time.Location) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Platform: platform}
	casesHandler := &CasesHandler{Platform: platform}
	sightingsHandler := &SightingsHandler{Platform: platform, Location: loc}

	authMW := AuthMiddleware(jwtSecret, db, true)
	optionalAuth := AuthMiddleware(jwtSecret, db, false)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Anonymous viewers get the actions an anonymous visitor would see.
	mux.Handle("GET /api/missing-persons/{id}/actions", optionalAuth(http.HandlerFunc(casesHandler.Actions)))

	mux.Handle("POST /api/sightings/validate", optionalAuth(http.HandlerFunc(sightingsHandler.Validate)))
	mux.Handle("POST /api/sightings", authMW(http.HandlerFunc(sightingsHandler.Create)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})

	return mux
}
