package model

import (
	"encoding/json"
	"fmt"
)

// Role is a viewer's role as issued by the platform's auth service.
type Role string

// Roles.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole converts a raw role string into a Role. Unknown roles are rejected
// so that call sites never have to deal with them.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff reports whether the role may moderate cases.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// UserRef is the embedded user reference returned by the API on cases and sightings.
type UserRef struct {
	ID        string `json:"_id" validate:"required"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// UnmarshalJSON accepts either a populated user document or a bare user id.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*u = UserRef{ID: id}
		return nil
	}
	type alias UserRef
	return json.Unmarshal(data, (*alias)(u))
}

// FullName returns "First Last", trimmed.
func (u *UserRef) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// User is the authenticated account returned by the login endpoint.
type User struct {
	ID        string `json:"_id" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role" validate:"required"`
}

// Viewer is whoever is looking at a page. The zero value is an anonymous visitor.
type Viewer struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Anonymous is the viewer used when no session is present.
var Anonymous = Viewer{}

// Authenticated reports whether the viewer is logged in.
func (v Viewer) Authenticated() bool {
	return v.ID != ""
}

// ViewerFromUser builds a Viewer from an API user, validating the role.
func ViewerFromUser(u User) (Viewer, error) {
	role, err := ParseRole(u.Role)
	if err != nil {
		return Viewer{}, err
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		name = u.Email
	}
	return Viewer{ID: u.ID, Name: name, Email: u.Email, Role: role}, nil
}
