// Package casestate derives what can be shown and done for a missing-person
// case from its status and the viewer looking at it.
package casestate

import (
	"strings"

	"github.com/erazemk/afalagi/internal/model"
)

// CanSubmitSighting reports whether new sightings may be filed against c.
func CanSubmitSighting(c *model.Case) bool {
	return c != nil && c.Status == model.CaseActive
}

// StatusLabel returns the capitalised status, e.g. "Active".
func StatusLabel(c *model.Case) string {
	return capitalize(string(c.Status))
}

// PriorityLabel returns the capitalised priority, e.g. "Critical".
func PriorityLabel(c *model.Case) string {
	return capitalize(string(c.Priority))
}

// IsOwner reports whether v reported c.
func IsOwner(v model.Viewer, c *model.Case) bool {
	if !v.Authenticated() || c == nil || c.ReportedBy == nil {
		return false
	}
	return c.ReportedBy.ID == v.ID
}

// IsAdmin reports whether v is an administrator or moderator.
func IsAdmin(v model.Viewer) bool {
	return v.Authenticated() && v.Role.IsStaff()
}

// CanModify reports whether v may edit, delete or close c.
func CanModify(v model.Viewer, c *model.Case) bool {
	return IsOwner(v, c) || IsAdmin(v)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
