package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/model"
	"github.com/erazemk/afalagi/internal/wizard"
)

// SightingsHandler handles sighting endpoints.
type SightingsHandler struct {
	Platform *apiclient.Client
	Location *time.Location
	Now      func() time.Time
}

func (h *SightingsHandler) options() []wizard.Option {
	opts := []wizard.Option{}
	if h.Location != nil {
		opts = append(opts, wizard.WithLocation(h.Location))
	}
	if h.Now != nil {
		opts = append(opts, wizard.WithClock(h.Now))
	}
	return opts
}

type validateRequest struct {
	Step wizard.Step `json:"step"`
	Form wizard.Form `json:"form"`
}

type validateResponse struct {
	Valid  bool          `json:"valid"`
	Errors wizard.Errors `json:"errors"`
}

// Validate handles POST /api/sightings/validate. It checks one step of the
// form without storing anything.
func (h *SightingsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req := validateRequest{Form: wizard.NewForm()}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Step < wizard.StepWhen || req.Step > wizard.StepSubmit {
		jsonError(w, http.StatusBadRequest, "step must be between 1 and 4")
		return
	}
	if err := checkCondition(req.Form); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	wz := wizard.New("", h.options()...)
	wz.Form = req.Form
	errs := wz.ValidateStep(req.Step)
	jsonResponse(w, http.StatusOK, validateResponse{Valid: len(errs) == 0, Errors: errs})
}

type createSightingRequest struct {
	CaseID string      `json:"caseId"`
	Form   wizard.Form `json:"form"`
}

type fieldErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// Create handles POST /api/sightings. The whole form is validated and the
// case status rechecked before the single upstream POST.
func (h *SightingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := createSightingRequest{Form: wizard.NewForm()}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CaseID == "" {
		jsonError(w, http.StatusBadRequest, "caseId required")
		return
	}
	if err := checkCondition(req.Form); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	wz := wizard.New(req.CaseID, h.options()...)
	wz.Form = req.Form
	wz.Step = wizard.StepSubmit

	platform := platformFor(h.Platform, r)
	created, err := wz.Submit(r.Context(), platform, platform)

	var verr *model.ValidationError
	switch {
	case err == nil:
		slog.Info("sighting reported", "user", viewerFrom(r.Context()).ID, "case", req.CaseID, "sighting", created.ID)
		jsonResponse(w, http.StatusCreated, created)
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusUnprocessableEntity, fieldErrorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, model.ErrCaseNotActive):
		jsonError(w, http.StatusConflict, "this case is no longer active")
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "missing person not found")
	default:
		slog.Error("failed to submit sighting", "case", req.CaseID, "error", err)
		jsonError(w, http.StatusBadGateway, apiclient.Message(err, "failed to submit sighting"))
	}
}

func checkCondition(f wizard.Form) error {
	if f.PersonCondition == "" {
		return nil
	}
	_, err := model.ParseCondition(string(f.PersonCondition))
	return err
}
