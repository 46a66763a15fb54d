package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"github.com/erazemk/afalagi/internal/actions"
	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/casestate"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/wizard"
	webembed "github.com/erazemk/afalagi/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusLabel":   func(c model.Case) string { return casestate.StatusLabel(&c) },
		"priorityLabel": func(c model.Case) string { return casestate.PriorityLabel(&c) },
		"date":          formatDate,
		"add":           func(a, b int) int { return a + b },
		"join":          strings.Join,
		"roleName": func(role model.Role) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleModerator:
				return "Moderator"
			case model.RoleUser:
				return "Member"
			default:
				return string(role)
			}
		},
	}
}

func formatDate(v any) string {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("Jan 2, 2006")
	case model.Date:
		return formatDate(d.Time)
	case *model.Date:
		if d == nil {
			return ""
		}
		return formatDate(d.Time)
	}
	return ""
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"home.html",
		"about.html",
		"login.html",
		"cases.html",
		"case_detail.html",
		"case_delete.html",
		"case_found.html",
		"case_form.html",
		"sighting_wizard.html",
		"admin.html",
		"not_found.html",
		"error.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Viewer  model.Viewer
	Flashes []Flash
	Error   string
	Path    string
}

// IsStaff reports whether the navigation should link the admin dashboard.
func (p PageData) IsStaff() bool {
	return casestate.IsAdmin(p.Viewer)
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB            *sql.DB
	API           *apiclient.Client
	Templates     *Templates
	JWTSecret     string
	Sessions      sessions.Store
	Drafts        wizard.DraftStore
	Location      *time.Location
	SecureCookies bool

	// Now is the wizard's clock. Nil means time.Now.
	Now func() time.Time

	submits keyedLock
}

// page builds the base page data and consumes pending flashes.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	return PageData{
		Title:   title,
		Viewer:  viewerFrom(r.Context()),
		Flashes: s.flashes(w, r),
		Path:    r.URL.Path,
	}
}

// api returns a client acting as the logged-in viewer, or anonymously.
func (s *Server) api(r *http.Request) *apiclient.Client {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.APIToken != "" {
		return s.API.WithToken(claims.APIToken)
	}
	return s.API
}

func (s *Server) resolver(r *http.Request) *actions.Resolver {
	return actions.NewResolver(s.api(r))
}

// notFound renders the explicit not-found view.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.Templates.RenderStatus(w, http.StatusNotFound, "not_found.html", &struct{ PageData }{
		PageData: s.page(w, r, "Not found"),
	})
}

// serverError renders a generic error view with a user-facing message.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.Templates.RenderStatus(w, status, "error.html", &struct{ PageData }{
		PageData: PageData{
			Title:   "Something went wrong",
			Viewer:  viewerFrom(r.Context()),
			Flashes: s.flashes(w, r),
			Error:   message,
			Path:    r.URL.Path,
		},
	})
}
