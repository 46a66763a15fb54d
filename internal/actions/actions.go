// Package actions resolves which mutating actions a viewer may take on a
// case and performs them through the platform API.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/afalagi/internal/casestate"
	"github.com/erazemk/afalagi/internal/model"
)

// Action is a user-triggered operation on a case.
type Action string

// Actions, in the order they are offered.
const (
	ReportSighting Action = "report_sighting"
	Verify         Action = "verify"
	MarkFound      Action = "mark_found"
	Edit           Action = "edit"
	Delete         Action = "delete"
)

var all = []Action{ReportSighting, Verify, MarkFound, Edit, Delete}

var (
	// ErrNotAuthenticated is returned when an action needs a logged-in viewer.
	ErrNotAuthenticated = errors.New("login required")

	// ErrNotPermitted is returned when the viewer's role or the case state
	// does not allow the action.
	ErrNotPermitted = errors.New("action not permitted")

	// ErrConfirmationRequired is returned when a destructive action was not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// Allowed reports whether v may perform a on c.
func Allowed(v model.Viewer, c *model.Case, a Action) bool {
	if c == nil {
		return false
	}
	switch a {
	case ReportSighting:
		return v.Authenticated() && casestate.CanSubmitSighting(c)
	case Verify:
		return casestate.IsAdmin(v) && !c.IsVerified
	case MarkFound:
		return casestate.CanModify(v, c) && c.Status == model.CaseActive
	case Edit, Delete:
		return casestate.CanModify(v, c)
	}
	return false
}

// Available lists every action v may perform on c.
func Available(v model.Viewer, c *model.Case) []Action {
	var out []Action
	for _, a := range all {
		if Allowed(v, c, a) {
			out = append(out, a)
		}
	}
	return out
}

// Set is a lookup-friendly view of Available for templates.
type Set map[Action]bool

// AvailableSet returns Available as a Set.
func AvailableSet(v model.Viewer, c *model.Case) Set {
	s := Set{}
	for _, a := range Available(v, c) {
		s[a] = true
	}
	return s
}

// Has reports whether the set contains the named action.
func (s Set) Has(name string) bool {
	return s[Action(name)]
}

// CaseService is the subset of the platform API the resolver needs.
type CaseService interface {
	GetCase(ctx context.Context, id string) (*model.CaseDetail, error)
	VerifyCase(ctx context.Context, id string) (*model.Case, error)
	MarkFound(ctx context.Context, id string, report model.FoundReport) (*model.Case, error)
	DeleteCase(ctx context.Context, id string) error
}

// Resolver performs actions after checking their preconditions. A failed
// precondition never reaches the API.
type Resolver struct {
	api CaseService
}

// NewResolver returns a Resolver backed by api.
func NewResolver(api CaseService) *Resolver {
	return &Resolver{api: api}
}

// EnterWizard checks whether v may start reporting a sighting for c.
func (r *Resolver) EnterWizard(v model.Viewer, c *model.Case) error {
	if !v.Authenticated() {
		return ErrNotAuthenticated
	}
	if !casestate.CanSubmitSighting(c) {
		return model.ErrCaseNotActive
	}
	return nil
}

// Verify marks c as verified and returns the refetched case. The returned
// case is nil when the write succeeded but the refetch did not.
func (r *Resolver) Verify(ctx context.Context, v model.Viewer, c *model.Case) (*model.CaseDetail, error) {
	if !Allowed(v, c, Verify) {
		return nil, denied("verifying", c)
	}
	if _, err := r.api.VerifyCase(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("verifying case %s: %w", c.ID, err)
	}
	slog.Info("case verified", "user", v.ID, "case", c.CaseNumber)
	return r.refetch(ctx, c.ID), nil
}

// Delete removes c. The caller must have obtained explicit confirmation.
func (r *Resolver) Delete(ctx context.Context, v model.Viewer, c *model.Case, confirmed bool) error {
	if !Allowed(v, c, Delete) {
		return denied("deleting", c)
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := r.api.DeleteCase(ctx, c.ID); err != nil {
		return fmt.Errorf("deleting case %s: %w", c.ID, err)
	}
	slog.Info("case deleted", "user", v.ID, "case", c.CaseNumber)
	return nil
}

// MarkFound closes c as found and returns the refetched case, or nil when
// the refetch failed after the write. A missing found location is reported
// as a ValidationError without calling the API.
func (r *Resolver) MarkFound(ctx context.Context, v model.Viewer, c *model.Case, report model.FoundReport) (*model.CaseDetail, error) {
	if !Allowed(v, c, MarkFound) {
		return nil, denied("marking as found", c)
	}
	report.FoundLocation = strings.TrimSpace(report.FoundLocation)
	report.Notes = strings.TrimSpace(report.Notes)
	if report.FoundLocation == "" {
		return nil, model.NewValidationError("foundLocation", "Please enter where the person was found")
	}
	if _, err := r.api.MarkFound(ctx, c.ID, report); err != nil {
		return nil, fmt.Errorf("marking case %s as found: %w", c.ID, err)
	}
	slog.Info("case marked as found", "user", v.ID, "case", c.CaseNumber)
	return r.refetch(ctx, c.ID), nil
}

// refetch reloads a case after a successful write. A failure here does not
// undo the write, so it is logged and not returned.
func (r *Resolver) refetch(ctx context.Context, id string) *model.CaseDetail {
	detail, err := r.api.GetCase(ctx, id)
	if err != nil {
		slog.Warn("failed to refetch case after update", "case", id, "error", err)
		return nil
	}
	return detail
}

func denied(verb string, c *model.Case) error {
	if c == nil {
		return fmt.Errorf("%s case: %w", verb, ErrNotPermitted)
	}
	return fmt.Errorf("%s case %s: %w", verb, c.ID, ErrNotPermitted)
}
