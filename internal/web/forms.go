package web

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/afalagi/internal/model"
)

var formValidate = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// caseForm is the report-missing and edit form as submitted. Values are kept
// as strings so they can be shown again after a failed submission.
type caseForm struct {
	FirstName           string `form:"firstName" validate:"required,max=100"`
	LastName            string `form:"lastName" validate:"required,max=100"`
	Age                 string `form:"age" validate:"required,number"`
	Gender              string `form:"gender" validate:"required,oneof=Male Female"`
	Photo               string `form:"photo" validate:"omitempty,url"`
	Height              string `form:"height" validate:"omitempty,number"`
	Weight              string `form:"weight" validate:"omitempty,number"`
	LastSeenDate        string `form:"lastSeenDate" validate:"required"`
	LastSeenCity        string `form:"lastSeenCity" validate:"required,max=100"`
	LastSeenLocation    string `form:"lastSeenLocation" validate:"required,max=200"`
	Circumstances       string `form:"circumstances" validate:"max=2000"`
	ContactName         string `form:"primaryContactName" validate:"required,max=100"`
	ContactPhone        string `form:"primaryContactPhone" validate:"required,min=7,max=20"`
	ContactRelationship string `form:"primaryContactRelationship" validate:"max=50"`
}

var caseFormLabels = map[string]string{
	"firstName":                  "First name",
	"lastName":                   "Last name",
	"age":                        "Age",
	"gender":                     "Gender",
	"photo":                      "Photo link",
	"height":                     "Height",
	"weight":                     "Weight",
	"lastSeenDate":               "Last seen date",
	"lastSeenCity":               "City",
	"lastSeenLocation":           "Specific location",
	"circumstances":              "Circumstances",
	"primaryContactName":         "Contact name",
	"primaryContactPhone":        "Contact phone",
	"primaryContactRelationship": "Relationship",
}

// Genders offered by the form.
var genders = []string{"Male", "Female"}

func parseCaseForm(r *http.Request) caseForm {
	get := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	return caseForm{
		FirstName:           get("firstName"),
		LastName:            get("lastName"),
		Age:                 get("age"),
		Gender:              get("gender"),
		Photo:               get("photo"),
		Height:              get("height"),
		Weight:              get("weight"),
		LastSeenDate:        get("lastSeenDate"),
		LastSeenCity:        get("lastSeenCity"),
		LastSeenLocation:    get("lastSeenLocation"),
		Circumstances:       get("circumstances"),
		ContactName:         get("primaryContactName"),
		ContactPhone:        get("primaryContactPhone"),
		ContactRelationship: get("primaryContactRelationship"),
	}
}

// caseFormFrom fills the edit form from an existing case.
func caseFormFrom(c *model.Case) caseForm {
	f := caseForm{
		FirstName:           c.PersonalInfo.FirstName,
		LastName:            c.PersonalInfo.LastName,
		Age:                 strconv.Itoa(c.PersonalInfo.Age),
		Gender:              c.PersonalInfo.Gender,
		Photo:               c.PersonalInfo.Photo,
		LastSeenCity:        c.LastSeenInfo.Location.City,
		LastSeenLocation:    c.LastSeenInfo.Location.SpecificLocation,
		Circumstances:       c.LastSeenInfo.Circumstances,
		ContactName:         c.ContactInfo.PrimaryContact.Name,
		ContactPhone:        c.ContactInfo.PrimaryContact.Phone,
		ContactRelationship: c.ContactInfo.PrimaryContact.Relationship,
	}
	if c.LastSeenInfo.Date != nil {
		f.LastSeenDate = c.LastSeenInfo.Date.String()
	}
	if pd := c.PhysicalDescription; pd != nil {
		if pd.Height > 0 {
			f.Height = strconv.Itoa(pd.Height)
		}
		if pd.Weight > 0 {
			f.Weight = strconv.Itoa(pd.Weight)
		}
	}
	return f
}

// validate checks the form and returns field errors keyed by form name.
func (f caseForm) validate(now time.Time, loc *time.Location) map[string]string {
	errs := map[string]string{}

	var verrs validator.ValidationErrors
	if err := formValidate.Struct(f); errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs[fe.Field()] = fieldMessage(fe)
		}
	}

	if _, ok := errs["age"]; !ok {
		if age, _ := strconv.Atoi(f.Age); age > 150 {
			errs["age"] = "Age must be 150 or less"
		}
	}
	if _, ok := errs["photo"]; !ok && f.Photo != "" && !model.IsWebURL(f.Photo) {
		errs["photo"] = "Enter a valid http or https link"
	}
	if _, ok := errs["lastSeenDate"]; !ok {
		d, err := time.ParseInLocation(model.DateLayout, f.LastSeenDate, loc)
		switch {
		case err != nil:
			errs["lastSeenDate"] = "Enter a valid date"
		case d.After(now):
			errs["lastSeenDate"] = "Last seen date cannot be in the future"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	label := caseFormLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "number":
		return label + " must be a whole number"
	case "oneof":
		return "Choose a valid " + strings.ToLower(label)
	case "url":
		return "Enter a valid http or https link"
	case "max":
		return label + " is too long"
	case "min":
		return label + " is too short"
	}
	return label + " is invalid"
}

// input converts a validated form into the API request body.
func (f caseForm) input() model.CaseInput {
	age, _ := strconv.Atoi(f.Age)
	height, _ := strconv.Atoi(f.Height)
	weight, _ := strconv.Atoi(f.Weight)

	in := model.CaseInput{
		PersonalInfo: model.PersonalInfo{
			FirstName: f.FirstName,
			LastName:  f.LastName,
			Age:       age,
			Gender:    f.Gender,
			Photo:     f.Photo,
		},
		LastSeenInfo: model.LastSeenInfo{
			Location: model.Location{
				City:             f.LastSeenCity,
				SpecificLocation: f.LastSeenLocation,
			},
			Circumstances: f.Circumstances,
		},
		ContactInfo: model.ContactInfo{
			PrimaryContact: model.Contact{
				Name:         f.ContactName,
				Phone:        f.ContactPhone,
				Relationship: f.ContactRelationship,
			},
		},
	}
	if d, err := model.ParseDate(f.LastSeenDate); err == nil {
		in.LastSeenInfo.Date = &d
	}
	if height > 0 || weight > 0 {
		in.PhysicalDescription = &model.PhysicalDescription{Height: height, Weight: weight}
	}
	return in
}
