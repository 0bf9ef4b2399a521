package models

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input  string
		want   Role
		wantOK bool
	}{
		{"STUDENT", RoleStudent, true},
		{"teacher", RoleTeacher, true},
		{"  Enrollment_Office ", RoleEnrollmentOffice, true},
		{"ADMIN", RoleAdmin, true},
		{"ROLE_ADMIN", "", false},
		{"superadmin", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRole(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRoleLabel(t *testing.T) {
	if got := RoleEnrollmentOffice.Label(); got != "Enrollment Office" {
		t.Errorf("Label() = %q, want %q", got, "Enrollment Office")
	}
	if got := Role("GUEST").Label(); got != "GUEST" {
		t.Errorf("Label() for unknown role = %q, want raw value", got)
	}
}

func TestUserRecordFullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Ada", "Lovelace", "Ada Lovelace"},
		{"Ada", "", "Ada"},
		{"", "Lovelace", "Lovelace"},
		{"", "", ""},
	}
	for _, tt := range tests {
		u := UserRecord{FirstName: tt.first, LastName: tt.last}
		if got := u.FullName(); got != tt.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}
