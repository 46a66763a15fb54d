package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/afalagi/internal/actions"
	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/wizard"
)

type wizardPage struct {
	PageData
	Case           model.Case
	Wizard         *wizard.Wizard
	Steps          []wizard.Step
	Conditions     []model.Condition
	MinDescription int
}

// wizardCase loads the case and applies the entry guard. On failure it has
// already redirected and returns nil.
func (s *Server) wizardCase(w http.ResponseWriter, r *http.Request) *model.Case {
	id := r.PathValue("id")
	detail, err := s.api(r).GetCase(r.Context(), id)
	if err != nil {
		slog.Error("failed to load case for sighting", "case", id, "error", err)
		s.flash(w, r, FlashError, "Error loading missing person details")
		http.Redirect(w, r, "/missing-persons", http.StatusSeeOther)
		return nil
	}

	c := &detail.Case
	switch err := s.resolver(r).EnterWizard(viewerFrom(r.Context()), c); {
	case errors.Is(err, model.ErrCaseNotActive):
		s.flash(w, r, FlashWarning, "This case is no longer active")
		http.Redirect(w, r, "/missing-persons/"+c.ID, http.StatusSeeOther)
		return nil
	case errors.Is(err, actions.ErrNotAuthenticated):
		s.flash(w, r, FlashWarning, "Please log in to continue")
		http.Redirect(w, r, "/login?next=/report-sighting/"+c.ID, http.StatusSeeOther)
		return nil
	}
	return c
}

func (s *Server) wizardOptions() []wizard.Option {
	return []wizard.Option{wizard.WithLocation(s.location()), wizard.WithClock(s.now)}
}

// loadWizard resumes the saved draft for key, or starts a new wizard.
func (s *Server) loadWizard(ctx context.Context, key, caseID string) *wizard.Wizard {
	data, err := s.Drafts.LoadDraft(ctx, key)
	switch {
	case errors.Is(err, wizard.ErrDraftNotFound):
	case err != nil:
		slog.Warn("failed to load sighting draft", "case", caseID, "error", err)
	default:
		wz, err := wizard.Decode(data, s.wizardOptions()...)
		if err == nil && wz.CaseID == caseID {
			return wz
		}
		slog.Warn("discarding unusable sighting draft", "case", caseID, "error", err)
	}
	return wizard.New(caseID, s.wizardOptions()...)
}

func (s *Server) saveWizard(ctx context.Context, key string, wz *wizard.Wizard) {
	data, err := wz.Encode()
	if err == nil {
		err = s.Drafts.SaveDraft(ctx, key, wz.CaseID, data)
	}
	if err != nil {
		slog.Error("failed to save sighting draft", "case", wz.CaseID, "error", err)
	}
}

func (s *Server) dropWizard(ctx context.Context, key string) {
	if err := s.Drafts.DeleteDraft(ctx, key); err != nil {
		slog.Error("failed to delete sighting draft", "key", key, "error", err)
	}
}

// SightingWizardPage handles GET /report-sighting/{id}.
func (s *Server) SightingWizardPage(w http.ResponseWriter, r *http.Request) {
	c := s.wizardCase(w, r)
	if c == nil {
		return
	}
	wz := s.loadWizard(r.Context(), wizard.DraftKey(s.wizardID(w, r), c.ID), c.ID)

	s.Templates.Render(w, "sighting_wizard.html", &wizardPage{
		PageData:       s.page(w, r, "Report a sighting"),
		Case:           *c,
		Wizard:         wz,
		Steps:          wizard.Steps,
		Conditions:     model.Conditions,
		MinDescription: wizard.MinDescriptionLength,
	})
}

// SightingWizardSubmit handles POST /report-sighting/{id}. The fields of the
// current step are applied before the requested navigation, and every
// outcome redirects so that a reload never repeats a submission.
func (s *Server) SightingWizardSubmit(w http.ResponseWriter, r *http.Request) {
	c := s.wizardCase(w, r)
	if c == nil {
		return
	}
	ctx := r.Context()
	key := wizard.DraftKey(s.wizardID(w, r), c.ID)
	self := "/report-sighting/" + c.ID
	detailURL := "/missing-persons/" + c.ID

	action := r.FormValue("action")
	if action == "cancel" {
		s.dropWizard(ctx, key)
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}

	wz := s.loadWizard(ctx, key, c.ID)
	if err := wz.Apply(wz.Step, r.PostForm); err != nil {
		slog.Warn("rejected sighting form value", "case", c.ID, "error", err)
		s.flash(w, r, FlashError, "Some of the values you entered are not valid.")
		http.Redirect(w, r, self, http.StatusSeeOther)
		return
	}

	switch action {
	case "next":
		wz.Next()
	case "back":
		wz.Back()
	case "submit":
		if s.submitSighting(w, r, key, wz) {
			return
		}
	}

	s.saveWizard(ctx, key, wz)
	http.Redirect(w, r, self, http.StatusSeeOther)
}

// submitSighting files the sighting. It reports whether it wrote the
// response; otherwise the caller saves the wizard and shows it again.
func (s *Server) submitSighting(w http.ResponseWriter, r *http.Request, key string, wz *wizard.Wizard) bool {
	ctx := r.Context()
	detailURL := "/missing-persons/" + wz.CaseID

	if !s.submits.TryLock(key) {
		s.flash(w, r, FlashWarning, "Your sighting is already being submitted.")
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return true
	}
	defer s.submits.Unlock(key)

	api := s.api(r)
	created, err := wz.Submit(ctx, api, api)

	var verr *model.ValidationError
	switch {
	case err == nil:
		slog.Info("sighting reported", "user", viewerFrom(ctx).ID, "case", wz.CaseID, "sighting", created.ID)
		s.dropWizard(ctx, key)
		s.flash(w, r, FlashSuccess, "Sighting reported successfully! Thank you for your help.")
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return true
	case errors.Is(err, model.ErrCaseNotActive):
		s.dropWizard(ctx, key)
		s.flash(w, r, FlashWarning, "This case is no longer active")
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return true
	case errors.As(err, &verr):
		s.flash(w, r, FlashError, "Please fix the highlighted fields before submitting.")
	case errors.Is(err, wizard.ErrNotOnSubmitStep):
	default:
		slog.Error("failed to submit sighting", "case", wz.CaseID, "error", err)
		s.flash(w, r, FlashError, apiclient.Message(err, "Error submitting sighting"))
	}
	return false
}
