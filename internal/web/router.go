package web

import (
	"net/http"

	"github.com/erazemk/afalagi/internal/metrics"
	webembed "github.com/erazemk/afalagi/web"
)

// NewRouter creates the web page router with all page routes registered.
// Templates are loaded when s has none. m may be nil.
func NewRouter(s *Server, m *metrics.Metrics) (http.Handler, error) {
	if s.Templates == nil {
		templates, err := LoadTemplates()
		if err != nil {
			return nil, err
		}
		s.Templates = templates
	}

	mux := http.NewServeMux()
	login := func(h http.HandlerFunc) http.Handler { return s.RequireLogin(h) }
	staff := func(h http.HandlerFunc) http.Handler { return s.RequireStaff(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /about", s.About)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.HandleFunc("GET /missing-persons", s.CasesPage)
	mux.HandleFunc("GET /missing-persons/{id}", s.CaseDetailPage)

	// Authenticated routes. Ownership and role checks happen per case.
	mux.Handle("GET /report-missing", login(s.ReportMissingPage))
	mux.Handle("POST /report-missing", login(s.ReportMissingSubmit))
	mux.Handle("GET /report-sighting/{id}", login(s.SightingWizardPage))
	mux.Handle("POST /report-sighting/{id}", login(s.SightingWizardSubmit))
	mux.Handle("GET /missing-persons/{id}/edit", login(s.CaseEditPage))
	mux.Handle("POST /missing-persons/{id}/edit", login(s.CaseEditSubmit))
	mux.Handle("GET /missing-persons/{id}/delete", login(s.CaseDeletePage))
	mux.Handle("POST /missing-persons/{id}/delete", login(s.CaseDeleteSubmit))
	mux.Handle("GET /missing-persons/{id}/found", login(s.CaseFoundPage))
	mux.Handle("POST /missing-persons/{id}/found", login(s.CaseFoundSubmit))
	mux.Handle("POST /missing-persons/{id}/verify", login(s.CaseVerifySubmit))

	// Staff routes.
	mux.Handle("GET /admin", staff(s.AdminDashboard))
	mux.Handle("POST /admin/cases/{id}/verify", staff(s.AdminVerifySubmit))
	mux.Handle("POST /admin/cases/{id}/delete", staff(s.AdminDeleteSubmit))

	// Everything else gets the not-found page.
	mux.HandleFunc("/", s.notFound)

	var h http.Handler = mux
	if m != nil {
		h = m.Middleware(h)
	}
	h = CookieAuthMiddleware(s.JWTSecret, s.DB)(h)
	return RequestIDMiddleware(h), nil
}
