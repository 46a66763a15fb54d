package model

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a case id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrCaseNotActive is returned when a sighting is filed against a case
	// that is no longer active.
	ErrCaseNotActive = errors.New("case is no longer active")
)

// ValidationError carries field-scoped messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
