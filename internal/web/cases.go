package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/afalagi/internal/actions"
	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/casestate"
	"github.com/erazemk/afalagi/internal/model"
)

// listLimit caps the public case list.
const listLimit = 50

// Detail view tabs.
var caseTabs = []string{"details", "sightings", "medical"}

type casesPage struct {
	PageData
	Cases  []model.Case
	Total  int
	Status string
	Query  string
}

// CasesPage handles GET /missing-persons.
func (s *Server) CasesPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.CaseFilter{
		Status: parseStatusFilter(q.Get("status")),
		Search: strings.TrimSpace(q.Get("q")),
		Limit:  listLimit,
	}
	if filter.Search == "" {
		filter.Search = strings.TrimSpace(q.Get("search"))
	}

	data := &casesPage{Status: string(filter.Status), Query: filter.Search}
	list, err := s.api(r).ListCases(r.Context(), filter)
	data.PageData = s.page(w, r, "Missing persons")
	if err != nil {
		slog.Error("failed to list cases", "error", err)
		data.Error = apiclient.Message(err, "Cases could not be loaded. Please try again.")
	} else {
		data.Cases = list.Cases
		data.Total = list.Total
	}

	s.Templates.Render(w, "cases.html", data)
}

func parseStatusFilter(s string) model.CaseStatus {
	switch status := model.CaseStatus(s); status {
	case model.CaseActive, model.CaseFound, model.CaseClosed:
		return status
	}
	return ""
}

// loadCase fetches the case named in the path. On failure it has already
// written the response and returns nil.
func (s *Server) loadCase(w http.ResponseWriter, r *http.Request) *model.CaseDetail {
	detail, err := s.api(r).GetCase(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.notFound(w, r)
		return nil
	case err != nil:
		slog.Error("failed to load case", "case", r.PathValue("id"), "error", err)
		s.serverError(w, r, http.StatusBadGateway, apiclient.Message(err, "Error loading person details"))
		return nil
	}
	return detail
}

type caseDetailPage struct {
	PageData
	Case      model.Case
	Sightings []model.NumberedSighting
	Actions   actions.Set
	CanSubmit bool
	Tab       string
	Tabs      []string
}

// CaseDetailPage handles GET /missing-persons/{id}.
func (s *Server) CaseDetailPage(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	viewer := viewerFrom(r.Context())

	tab := r.URL.Query().Get("tab")
	if !validTab(tab) {
		tab = caseTabs[0]
	}

	s.Templates.Render(w, "case_detail.html", &caseDetailPage{
		PageData:  s.page(w, r, c.PersonalInfo.FullName()),
		Case:      *c,
		Sightings: model.Chronological(detail.Sightings),
		Actions:   actions.AvailableSet(viewer, c),
		CanSubmit: casestate.CanSubmitSighting(c),
		Tab:       tab,
		Tabs:      caseTabs,
	})
}

func validTab(tab string) bool {
	for _, t := range caseTabs {
		if t == tab {
			return true
		}
	}
	return false
}

// CaseVerifySubmit handles POST /missing-persons/{id}/verify.
func (s *Server) CaseVerifySubmit(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	s.verify(w, r, &detail.Case, "/missing-persons/"+detail.Case.ID)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request, c *model.Case, back string) {
	if _, err := s.resolver(r).Verify(r.Context(), viewerFrom(r.Context()), c); err != nil {
		s.actionFailed(w, r, err, "Error verifying case")
	} else {
		s.flash(w, r, FlashSuccess, "Case verified successfully")
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// actionFailed turns an action error into a toast.
func (s *Server) actionFailed(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, actions.ErrNotPermitted):
		s.flash(w, r, FlashError, "You are not allowed to do that.")
	case errors.Is(err, model.ErrNotFound):
		s.flash(w, r, FlashError, "This case no longer exists.")
	default:
		slog.Error("case action failed", "user", viewerFrom(r.Context()).ID, "error", err)
		s.flash(w, r, FlashError, apiclient.Message(err, fallback))
	}
}

type caseDeletePage struct {
	PageData
	Case   model.Case
	Return string
}

// CaseDeletePage handles GET /missing-persons/{id}/delete.
func (s *Server) CaseDeletePage(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	if !actions.Allowed(viewerFrom(r.Context()), c, actions.Delete) {
		s.flash(w, r, FlashError, "You are not allowed to do that.")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
		return
	}

	s.Templates.Render(w, "case_delete.html", &caseDeletePage{
		PageData: s.page(w, r, "Delete report"),
		Case:     *c,
	})
}

// CaseDeleteSubmit handles POST /missing-persons/{id}/delete.
func (s *Server) CaseDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	err := s.resolver(r).Delete(r.Context(), viewerFrom(r.Context()), c, r.FormValue("confirm") == "yes")
	switch {
	case errors.Is(err, actions.ErrConfirmationRequired):
		http.Redirect(w, r, "/missing-persons/"+c.ID+"/delete", http.StatusSeeOther)
	case err != nil:
		s.actionFailed(w, r, err, "Error deleting report")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
	default:
		s.flash(w, r, FlashSuccess, "Report deleted successfully")
		http.Redirect(w, r, "/missing-persons", http.StatusSeeOther)
	}
}

type caseFoundPage struct {
	PageData
	Case   model.Case
	Report model.FoundReport
	Errors map[string]string
}

// CaseFoundPage handles GET /missing-persons/{id}/found.
func (s *Server) CaseFoundPage(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	if !actions.Allowed(viewerFrom(r.Context()), c, actions.MarkFound) {
		s.flash(w, r, FlashError, "This case cannot be marked as found.")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
		return
	}

	s.Templates.Render(w, "case_found.html", &caseFoundPage{
		PageData: s.page(w, r, "Mark as found"),
		Case:     *c,
	})
}

// CaseFoundSubmit handles POST /missing-persons/{id}/found. Validation
// errors and API failures keep the form and its values.
func (s *Server) CaseFoundSubmit(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	report := model.FoundReport{
		FoundLocation: r.FormValue("foundLocation"),
		Notes:         r.FormValue("notes"),
	}

	_, err := s.resolver(r).MarkFound(r.Context(), viewerFrom(r.Context()), c, report)
	if err == nil {
		s.flash(w, r, FlashSuccess, "Person marked as found successfully!")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
		return
	}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "case_found.html", &caseFoundPage{
			PageData: s.page(w, r, "Mark as found"),
			Case:     *c,
			Report:   report,
			Errors:   verr.Fields,
		})
	case errors.Is(err, actions.ErrNotPermitted):
		s.actionFailed(w, r, err, "")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
	default:
		slog.Error("failed to mark case as found", "case", c.ID, "error", err)
		page := s.page(w, r, "Mark as found")
		page.Error = apiclient.Message(err, "Error updating status")
		s.Templates.RenderStatus(w, http.StatusBadGateway, "case_found.html", &caseFoundPage{
			PageData: page,
			Case:     *c,
			Report:   report,
		})
	}
}
