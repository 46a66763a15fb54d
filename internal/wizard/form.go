package wizard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/erazemk/afalagi/internal/model"
)

// Form field names, shared by the HTML form, the JSON API and Errors keys.
const (
	FieldSightingDate         = "sightingDate"
	FieldSightingTime         = "sightingTime"
	FieldCity                 = "city"
	FieldSubcity              = "subcity"
	FieldWoreda               = "woreda"
	FieldSpecificLocation     = "specificLocation"
	FieldDescription          = "description"
	FieldPersonCondition      = "personCondition"
	FieldWasAlone             = "wasAlone"
	FieldCompanionDescription = "companionDescription"
	FieldDidAttemptContact    = "didAttemptContact"
	FieldContactResult        = "contactResult"
	FieldPhotoURL             = "photoUrl"
	FieldIsAnonymous          = "isAnonymous"
)

// Form holds everything entered so far. Values survive navigation in both
// directions.
type Form struct {
	SightingDate         string          `json:"sightingDate"`
	SightingTime         string          `json:"sightingTime"`
	City                 string          `json:"city"`
	Subcity              string          `json:"subcity"`
	Woreda               string          `json:"woreda"`
	SpecificLocation     string          `json:"specificLocation"`
	Description          string          `json:"description"`
	PersonCondition      model.Condition `json:"personCondition"`
	WasAlone             bool            `json:"wasAlone"`
	CompanionDescription string          `json:"companionDescription"`
	DidAttemptContact    bool            `json:"didAttemptContact"`
	ContactResult        string          `json:"contactResult"`
	PhotoURL             string          `json:"photoUrl"`
	IsAnonymous          bool            `json:"isAnonymous"`
}

// NewForm returns a form with the same defaults as a fresh wizard.
func NewForm() Form {
	return Form{PersonCondition: model.ConditionUnknown, WasAlone: true}
}

type fieldKind int

const (
	kindText fieldKind = iota
	// kindCheckbox fields are absent from a submitted form when unchecked.
	kindCheckbox
)

type fieldSpec struct {
	step Step
	kind fieldKind
}

var fields = map[string]fieldSpec{
	FieldSightingDate:         {StepWhen, kindText},
	FieldSightingTime:         {StepWhen, kindText},
	FieldCity:                 {StepWhere, kindText},
	FieldSubcity:              {StepWhere, kindText},
	FieldWoreda:               {StepWhere, kindText},
	FieldSpecificLocation:     {StepWhere, kindText},
	FieldDescription:          {StepDetails, kindText},
	FieldPersonCondition:      {StepDetails, kindText},
	FieldWasAlone:             {StepDetails, kindText},
	FieldCompanionDescription: {StepDetails, kindText},
	FieldDidAttemptContact:    {StepSubmit, kindCheckbox},
	FieldContactResult:        {StepSubmit, kindText},
	FieldPhotoURL:             {StepSubmit, kindText},
	FieldIsAnonymous:          {StepSubmit, kindCheckbox},
}

func (f *Form) text(name string) *string {
	switch name {
	case FieldSightingDate:
		return &f.SightingDate
	case FieldSightingTime:
		return &f.SightingTime
	case FieldCity:
		return &f.City
	case FieldSubcity:
		return &f.Subcity
	case FieldWoreda:
		return &f.Woreda
	case FieldSpecificLocation:
		return &f.SpecificLocation
	case FieldDescription:
		return &f.Description
	case FieldCompanionDescription:
		return &f.CompanionDescription
	case FieldContactResult:
		return &f.ContactResult
	case FieldPhotoURL:
		return &f.PhotoURL
	}
	return nil
}

func (f *Form) flag(name string) *bool {
	switch name {
	case FieldWasAlone:
		return &f.WasAlone
	case FieldDidAttemptContact:
		return &f.DidAttemptContact
	case FieldIsAnonymous:
		return &f.IsAnonymous
	}
	return nil
}

// set updates one field and reports whether its value changed.
func (f *Form) set(name, value string) (bool, error) {
	if name == FieldPersonCondition {
		c, err := model.ParseCondition(value)
		if err != nil {
			return false, err
		}
		changed := f.PersonCondition != c
		f.PersonCondition = c
		return changed, nil
	}
	if p := f.text(name); p != nil {
		changed := *p != value
		*p = value
		return changed, nil
	}
	if p := f.flag(name); p != nil {
		b := parseBool(value)
		changed := *p != b
		*p = b
		return changed, nil
	}
	return false, fmt.Errorf("unknown field %q", name)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "yes", "1":
		return true
	}
	return false
}

// Apply copies the fields belonging to step from submitted form values.
// Unchecked checkboxes are absent from a form post and are read as false.
func (w *Wizard) Apply(step Step, values url.Values) error {
	for name, spec := range fields {
		if spec.step != step {
			continue
		}
		vs, present := values[name]
		switch {
		case present && len(vs) > 0:
			if err := w.Set(name, vs[0]); err != nil {
				return err
			}
		case spec.kind == kindCheckbox:
			if err := w.Set(name, "false"); err != nil {
				return err
			}
		}
	}
	return nil
}
