// internal/domain/models/role.go
package models

import "strings"

// Role is the closed set of account roles. Each role owns exactly one portal.
type Role string

const (
	RoleStudent          Role = "STUDENT"
	RoleTeacher          Role = "TEACHER"
	RoleEnrollmentOffice Role = "ENROLLMENT_OFFICE"
	RoleAdmin            Role = "ADMIN"
)

// RoleOption pairs a role with its display label for forms.
type RoleOption struct {
	Value Role
	Label string
}

// AllRoles lists every role in display order.
var AllRoles = []RoleOption{
	{Value: RoleStudent, Label: "Student"},
	{Value: RoleTeacher, Label: "Teacher"},
	{Value: RoleEnrollmentOffice, Label: "Enrollment Office"},
	{Value: RoleAdmin, Label: "Admin"},
}

// Valid reports whether r is one of the four canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleEnrollmentOffice, RoleAdmin:
		return true
	}
	return false
}

// Label returns the display label for r ("Enrollment Office"), or the raw
// value when r is not canonical.
func (r Role) Label() string {
	for _, opt := range AllRoles {
		if opt.Value == r {
			return opt.Label
		}
	}
	return string(r)
}

func (r Role) String() string { return string(r) }

// ParseRole parses a canonical role name, case-insensitively.
// It does not apply any default; callers that need the upstream
// fallback policy use normalize.ResolveRole instead.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	return "", false
}
