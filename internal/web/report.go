package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/afalagi/internal/actions"
	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/model"
)

type caseFormPage struct {
	PageData
	Form    caseForm
	Errors  map[string]string
	Genders []string
	Action  string
	Case    *model.Case
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

// ReportMissingPage handles GET /report-missing.
func (s *Server) ReportMissingPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "case_form.html", &caseFormPage{
		PageData: s.page(w, r, "Report a missing person"),
		Form:     caseForm{Gender: genders[0]},
		Genders:  genders,
		Action:   "/report-missing",
	})
}

// ReportMissingSubmit handles POST /report-missing.
func (s *Server) ReportMissingSubmit(w http.ResponseWriter, r *http.Request) {
	form := parseCaseForm(r)
	render := func(status int, errs map[string]string, message string) {
		page := s.page(w, r, "Report a missing person")
		page.Error = message
		s.Templates.RenderStatus(w, status, "case_form.html", &caseFormPage{
			PageData: page,
			Form:     form,
			Errors:   errs,
			Genders:  genders,
			Action:   "/report-missing",
		})
	}

	if errs := form.validate(s.now(), s.location()); errs != nil {
		render(http.StatusUnprocessableEntity, errs, "Please correct the highlighted fields.")
		return
	}

	created, err := s.api(r).CreateCase(r.Context(), form.input())
	if err != nil {
		slog.Error("failed to create case", "user", viewerFrom(r.Context()).ID, "error", err)
		render(http.StatusBadGateway, nil, apiclient.Message(err, "Error submitting report"))
		return
	}

	slog.Info("case reported", "user", viewerFrom(r.Context()).ID, "case", created.CaseNumber)
	s.flash(w, r, FlashSuccess, "Missing person report submitted successfully!")
	http.Redirect(w, r, "/missing-persons/"+created.ID, http.StatusSeeOther)
}

// CaseEditPage handles GET /missing-persons/{id}/edit.
func (s *Server) CaseEditPage(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	if !actions.Allowed(viewerFrom(r.Context()), c, actions.Edit) {
		s.flash(w, r, FlashError, "You are not allowed to do that.")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
		return
	}

	s.Templates.Render(w, "case_form.html", &caseFormPage{
		PageData: s.page(w, r, "Edit report"),
		Form:     caseFormFrom(c),
		Genders:  genders,
		Action:   "/missing-persons/" + c.ID + "/edit",
		Case:     c,
	})
}

// CaseEditSubmit handles POST /missing-persons/{id}/edit.
func (s *Server) CaseEditSubmit(w http.ResponseWriter, r *http.Request) {
	detail := s.loadCase(w, r)
	if detail == nil {
		return
	}
	c := &detail.Case
	viewer := viewerFrom(r.Context())
	if !actions.Allowed(viewer, c, actions.Edit) {
		s.flash(w, r, FlashError, "You are not allowed to do that.")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
		return
	}

	form := parseCaseForm(r)
	render := func(status int, errs map[string]string, message string) {
		page := s.page(w, r, "Edit report")
		page.Error = message
		s.Templates.RenderStatus(w, status, "case_form.html", &caseFormPage{
			PageData: page,
			Form:     form,
			Errors:   errs,
			Genders:  genders,
			Action:   "/missing-persons/" + c.ID + "/edit",
			Case:     c,
		})
	}

	if errs := form.validate(s.now(), s.location()); errs != nil {
		render(http.StatusUnprocessableEntity, errs, "Please correct the highlighted fields.")
		return
	}

	if _, err := s.api(r).UpdateCase(r.Context(), c.ID, form.input()); err != nil {
		slog.Error("failed to update case", "user", viewer.ID, "case", c.ID, "error", err)
		render(http.StatusBadGateway, nil, apiclient.Message(err, "Error updating report"))
		return
	}

	slog.Info("case updated", "user", viewer.ID, "case", c.CaseNumber)
	s.flash(w, r, FlashSuccess, "Report updated successfully")
	http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
}
