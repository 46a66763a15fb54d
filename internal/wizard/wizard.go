// Package wizard implements the four-step sighting report flow: When, Where,
// Details and Submit. Each step must validate before the next one opens,
// going back never loses data, and the final step issues a single POST.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/erazemk/afalagi/internal/casestate"
	"github.com/erazemk/afalagi/internal/model"
)

// Step is a page of the wizard.
type Step int

// Steps.
const (
	StepWhen Step = iota + 1
	StepWhere
	StepDetails
	StepSubmit
)

// Steps lists every step in order.
var Steps = []Step{StepWhen, StepWhere, StepDetails, StepSubmit}

// Title returns the label shown in the progress bar.
func (s Step) Title() string {
	switch s {
	case StepWhen:
		return "When"
	case StepWhere:
		return "Where"
	case StepDetails:
		return "Details"
	case StepSubmit:
		return "Submit"
	}
	return ""
}

func (s Step) valid() bool {
	return s >= StepWhen && s <= StepSubmit
}

// MinDescriptionLength is the minimum number of characters in a sighting description.
const MinDescriptionLength = 20

var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not finished.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrNotOnSubmitStep is returned when Submit is called before the final step.
	ErrNotOnSubmitStep = errors.New("sighting can only be submitted from the last step")
)

// Errors maps a field name to its validation message.
type Errors map[string]string

// CaseSource loads a case for the submission-time status check.
type CaseSource interface {
	GetCase(ctx context.Context, id string) (*model.CaseDetail, error)
}

// SightingSink accepts the final submission.
type SightingSink interface {
	CreateSighting(ctx context.Context, s model.NewSighting) (*model.Sighting, error)
}

// Wizard is the state of one sighting report in progress.
type Wizard struct {
	CaseID string `json:"caseId"`
	Step   Step   `json:"step"`
	Form   Form   `json:"form"`
	Errors Errors `json:"errors,omitempty"`

	now        func() time.Time
	loc        *time.Location
	submitting atomic.Bool
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock sets the clock used to reject sightings in the future.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// WithLocation sets the time zone the entered date and time are read in.
func WithLocation(loc *time.Location) Option {
	return func(w *Wizard) { w.loc = loc }
}

// New starts a wizard for the given case on the first step.
func New(caseID string, opts ...Option) *Wizard {
	w := &Wizard{
		CaseID: caseID,
		Step:   StepWhen,
		Form:   NewForm(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Decode restores a wizard saved with Encode.
func Decode(data []byte, opts ...Option) (*Wizard, error) {
	w := New("", opts...)
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("decoding wizard: %w", err)
	}
	if !w.Step.valid() {
		return nil, fmt.Errorf("decoding wizard: invalid step %d", w.Step)
	}
	return w, nil
}

// Encode serialises the wizard so it can be resumed on a later request.
func (w *Wizard) Encode() ([]byte, error) {
	return json.Marshal(w)
}

// Set updates a single field. When the value changes, that field's error is
// cleared and all other errors are left alone.
func (w *Wizard) Set(field, value string) error {
	changed, err := w.Form.set(field, value)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	delete(w.Errors, field)

	// A conditional field that is no longer shown cannot carry an error.
	switch {
	case field == FieldWasAlone && w.Form.WasAlone:
		delete(w.Errors, FieldCompanionDescription)
	case field == FieldDidAttemptContact && !w.Form.DidAttemptContact:
		delete(w.Errors, FieldContactResult)
	}
	return nil
}

// ShowCompanionDescription reports whether the companion field applies.
func (w *Wizard) ShowCompanionDescription() bool {
	return !w.Form.WasAlone
}

// ShowContactResult reports whether the contact result field applies.
func (w *Wizard) ShowContactResult() bool {
	return w.Form.DidAttemptContact
}

// Next validates the current step and moves forward when it passes.
// Errors is replaced by the outcome of the validation.
func (w *Wizard) Next() bool {
	if w.Step >= StepSubmit {
		return false
	}
	w.Errors = w.ValidateStep(w.Step)
	if len(w.Errors) > 0 {
		return false
	}
	w.Step++
	return true
}

// Back moves to the previous step without validating anything.
func (w *Wizard) Back() bool {
	if w.Step <= StepWhen {
		return false
	}
	w.Step--
	return true
}

// ValidateStep checks the fields of one step against the current form.
func (w *Wizard) ValidateStep(step Step) Errors {
	f := w.Form
	errs := Errors{}

	switch step {
	case StepWhen:
		if strings.TrimSpace(f.SightingDate) == "" {
			errs[FieldSightingDate] = "Date is required"
		}
		if strings.TrimSpace(f.SightingTime) == "" {
			errs[FieldSightingTime] = "Time is required"
		}
		if len(errs) > 0 {
			break
		}
		at, err := w.sightingTime()
		if err != nil {
			errs[FieldSightingDate] = "Enter a valid date and time"
			break
		}
		if at.After(w.now()) {
			errs[FieldSightingDate] = "Sighting cannot be in the future"
		}

	case StepWhere:
		if strings.TrimSpace(f.City) == "" {
			errs[FieldCity] = "City is required"
		}
		if strings.TrimSpace(f.SpecificLocation) == "" {
			errs[FieldSpecificLocation] = "Specific location is required"
		}

	case StepDetails:
		// The length counts the text as typed, the same count the form shows.
		switch {
		case strings.TrimSpace(f.Description) == "":
			errs[FieldDescription] = "Description is required"
		case utf8.RuneCountInString(f.Description) < MinDescriptionLength:
			errs[FieldDescription] = fmt.Sprintf("Description must be at least %d characters", MinDescriptionLength)
		}
		if !f.WasAlone && strings.TrimSpace(f.CompanionDescription) == "" {
			errs[FieldCompanionDescription] = "Please describe the companion(s)"
		}

	case StepSubmit:
		if f.DidAttemptContact && strings.TrimSpace(f.ContactResult) == "" {
			errs[FieldContactResult] = "Please describe what happened when you made contact"
		}
		if photo := strings.TrimSpace(f.PhotoURL); photo != "" && !model.IsWebURL(photo) {
			errs[FieldPhotoURL] = "Enter a valid http or https link"
		}
	}
	return errs
}

func (w *Wizard) sightingTime() (time.Time, error) {
	date := strings.TrimSpace(w.Form.SightingDate)
	clock := strings.TrimSpace(w.Form.SightingTime)
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, w.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date/time %q %q", date, clock)
}

// Payload assembles the POST /sightings body from all steps.
func (w *Wizard) Payload() (model.NewSighting, error) {
	f := w.Form
	date, err := model.ParseDate(strings.TrimSpace(f.SightingDate))
	if err != nil {
		return model.NewSighting{}, err
	}

	var companions model.Companionship = model.Alone{}
	if !f.WasAlone {
		companions = model.WithOthers{Description: strings.TrimSpace(f.CompanionDescription)}
	}
	var contact model.ContactAttempt = model.NoContactAttempt{}
	if f.DidAttemptContact {
		contact = model.ContactAttempted{Result: strings.TrimSpace(f.ContactResult)}
	}
	photos := []string{}
	if photo := strings.TrimSpace(f.PhotoURL); photo != "" {
		photos = append(photos, photo)
	}
	condition := f.PersonCondition
	if condition == "" {
		condition = model.ConditionUnknown
	}

	return model.NewSighting{
		MissingPerson: w.CaseID,
		SightingInfo: model.SightingInfo{
			Date: date,
			Time: strings.TrimSpace(f.SightingTime),
			Location: model.Location{
				City:             strings.TrimSpace(f.City),
				Subcity:          strings.TrimSpace(f.Subcity),
				Woreda:           strings.TrimSpace(f.Woreda),
				SpecificLocation: strings.TrimSpace(f.SpecificLocation),
			},
			Description:     strings.TrimSpace(f.Description),
			PersonCondition: condition,
			Companions:      companions,
		},
		Evidence:    model.Evidence{Photos: photos},
		Contact:     contact,
		IsAnonymous: f.IsAnonymous,
	}, nil
}

// Submit re-checks every step and the case status, then files the sighting
// with exactly one call to sink. On any failure the wizard keeps all entered
// data so the user can retry.
func (w *Wizard) Submit(ctx context.Context, cases CaseSource, sink SightingSink) (*model.Sighting, error) {
	if !w.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer w.submitting.Store(false)

	if w.Step != StepSubmit {
		return nil, ErrNotOnSubmitStep
	}

	for _, step := range Steps {
		if errs := w.ValidateStep(step); len(errs) > 0 {
			w.Errors = errs
			w.Step = step
			return nil, &model.ValidationError{Fields: errs}
		}
	}
	w.Errors = nil

	// The case may have been closed while the form was being filled in.
	detail, err := cases.GetCase(ctx, w.CaseID)
	if err != nil {
		return nil, fmt.Errorf("checking case %s: %w", w.CaseID, err)
	}
	if !casestate.CanSubmitSighting(&detail.Case) {
		return nil, model.ErrCaseNotActive
	}

	payload, err := w.Payload()
	if err != nil {
		return nil, fmt.Errorf("building sighting: %w", err)
	}
	created, err := sink.CreateSighting(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("submitting sighting: %w", err)
	}
	return created, nil
}
