// Package normalize canonicalizes user input and upstream user payloads.
package normalize

import "strings"

const rolePrefix = "ROLE_"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// RoleName returns the canonical spelling of a role string: trimmed,
// upper-cased and without a leading "ROLE_" authority prefix.
// It does not check the result against the known roles.
func RoleName(s string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), rolePrefix)
}

func stripRolePrefix(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), rolePrefix)
}
