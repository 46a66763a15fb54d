package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/model"
)

// recentLimit is how many active cases the home page features.
const recentLimit = 6

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	data := &struct {
		PageData
		RecentCases []model.Case
		ActiveCount int
	}{}

	list, err := s.api(r).ListCases(r.Context(), model.CaseFilter{Status: model.CaseActive, Limit: recentLimit})
	data.PageData = s.page(w, r, "Home")
	if err != nil {
		slog.Error("failed to list recent cases", "error", err)
		data.Error = apiclient.Message(err, "Recent cases could not be loaded.")
	} else {
		data.RecentCases = list.Cases
		data.ActiveCount = list.Total
	}

	s.Templates.Render(w, "home.html", data)
}

// About handles GET /about.
func (s *Server) About(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "about.html", &struct{ PageData }{PageData: s.page(w, r, "About")})
}
