package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/afalagi/internal/actions"
	"github.com/erazemk/afalagi/internal/apiclient"
	"github.com/erazemk/afalagi/internal/casestate"
	"github.com/erazemk/afalagi/internal/model"
)

// CasesHandler handles case endpoints.
type CasesHandler struct {
	Platform *apiclient.Client
}

type actionsResponse struct {
	CaseID            string           `json:"caseId"`
	Actions           []actions.Action `json:"actions"`
	CanSubmitSighting bool             `json:"canSubmitSighting"`
	StatusLabel       string           `json:"statusLabel"`
}

// Actions handles GET /api/missing-persons/{id}/actions.
func (h *CasesHandler) Actions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, err := platformFor(h.Platform, r).GetCase(r.Context(), id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "missing person not found")
		return
	case err != nil:
		slog.Error("failed to load case", "case", id, "error", err)
		jsonError(w, http.StatusBadGateway, apiclient.Message(err, "failed to load case"))
		return
	}

	c := &detail.Case
	available := actions.Available(viewerFrom(r.Context()), c)
	if available == nil {
		available = []actions.Action{}
	}
	jsonResponse(w, http.StatusOK, actionsResponse{
		CaseID:            c.ID,
		Actions:           available,
		CanSubmitSighting: casestate.CanSubmitSighting(c),
		StatusLabel:       casestate.StatusLabel(c),
	})
}

// platformFor returns a client acting as the bearer, or anonymously.
func platformFor(c *apiclient.Client, r *http.Request) *apiclient.Client {
	if claims := GetClaims(r.Context()); claims != nil && claims.APIToken != "" {
		return c.WithToken(claims.APIToken)
	}
	return c
}
