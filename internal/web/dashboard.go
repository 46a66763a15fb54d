package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/afalagi/internal/actions"
	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/model"
)

// adminLimit is how many cases the dashboard loads.
const adminLimit = 100

var adminTabs = []string{"overview", "cases", "verifications"}

// dashboardStats are the counters on the overview tab.
type dashboardStats struct {
	Total                int
	Active               int
	Resolved             int
	Sightings            int
	PendingVerifications int
}

func adminStats(cases []model.Case) dashboardStats {
	var st dashboardStats
	for _, c := range cases {
		st.Total++
		st.Sightings += c.SightingsCount
		switch c.Status {
		case model.CaseActive:
			st.Active++
		case model.CaseFound:
			st.Resolved++
		}
		if !c.IsVerified {
			st.PendingVerifications++
		}
	}
	return st
}

// filterCases applies the dashboard's status and free-text filters. The
// query matches the person's name or the case number, case-insensitively.
func filterCases(cases []model.Case, status model.CaseStatus, query string) []model.Case {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Case, 0, len(cases))
	for _, c := range cases {
		if status != "" && c.Status != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.PersonalInfo.FullName()), query) &&
			!strings.Contains(strings.ToLower(c.CaseNumber), query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func unverified(cases []model.Case) []model.Case {
	var out []model.Case
	for _, c := range cases {
		if !c.IsVerified {
			out = append(out, c)
		}
	}
	return out
}

type adminPage struct {
	PageData
	Tab     string
	Tabs    []string
	Stats   dashboardStats
	Recent  []model.Case
	Cases   []model.Case
	Pending []model.Case
	Status  string
	Query   string
}

// AdminDashboard handles GET /admin.
func (s *Server) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := &adminPage{
		Tab:    q.Get("tab"),
		Tabs:   adminTabs,
		Status: string(parseStatusFilter(q.Get("status"))),
		Query:  strings.TrimSpace(q.Get("q")),
	}
	if !validAdminTab(data.Tab) {
		data.Tab = adminTabs[0]
	}

	list, err := s.api(r).ListCases(r.Context(), model.CaseFilter{Limit: adminLimit})
	data.PageData = s.page(w, r, "Admin dashboard")
	if err != nil {
		slog.Error("failed to list cases for dashboard", "error", err)
		data.Error = apiclient.Message(err, "Error loading dashboard data")
		s.Templates.Render(w, "admin.html", data)
		return
	}

	data.Stats = adminStats(list.Cases)
	data.Recent = list.Cases
	if len(data.Recent) > 5 {
		data.Recent = data.Recent[:5]
	}
	data.Cases = filterCases(list.Cases, model.CaseStatus(data.Status), data.Query)
	data.Pending = unverified(list.Cases)

	s.Templates.Render(w, "admin.html", data)
}

func validAdminTab(tab string) bool {
	for _, t := range adminTabs {
		if t == tab {
			return true
		}
	}
	return false
}

// AdminVerifySubmit handles POST /admin/cases/{id}/verify.
func (s *Server) AdminVerifySubmit(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	s.verify(w, r, &detail.Case, "/admin?tab=verifications")
}

// AdminDeleteSubmit handles POST /admin/cases/{id}/delete. The form carries
// confirm=yes once the browser dialog has been accepted.
func (s *Server) AdminDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	err := s.resolver(r).Delete(r.Context(), viewerFrom(r.Context()), &detail.Case, r.FormValue("confirm") == "yes")
	switch {
	case errors.Is(err, actions.ErrConfirmationRequired):
		s.flash(w, r, FlashWarning, "Deletion was not confirmed")
	case err != nil:
		s.actionFailed(w, r, err, "Error deleting case")
	default:
		s.flash(w, r, FlashSuccess, "Case deleted successfully")
	}
	http.Redirect(w, r, "/admin?tab=cases", http.StatusSeeOther)
}
