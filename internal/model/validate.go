package model

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match what the API sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a decoded case against the API contract.
func (c *Case) Validate() error {
	return validate.Struct(c)
}

// Validate checks a decoded sighting against the API contract.
func (s *Sighting) Validate() error {
	return validate.Struct(s)
}

// Validate checks a case and all of its sightings.
func (d *CaseDetail) Validate() error {
	return validate.Struct(d)
}

// Validate checks the user returned by the login endpoint.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// IsWebURL reports whether s is an absolute http or https URL.
func IsWebURL(s string) bool {
	if validate.Var(s, "required,url") != nil {
		return false
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
