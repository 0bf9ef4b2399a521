package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RawUser is a loosely typed user payload as delivered by an identity
// backend: a decoded JSON object or a MongoDB document.
type RawUser map[string]any

// DefaultRole is assigned when a payload carries no recognizable role.
//
// This mirrors what the portal has always done for users whose role the
// backend failed to send. It is kept as-is; Resolution.Defaulted lets
// callers tell a real STUDENT from a fallback one.
const DefaultRole = models.RoleStudent

// RoleSource identifies which payload shape supplied the role.
type RoleSource int

const (
	SourceNone            RoleSource = iota
	SourceRoleField                  // {"role": "ADMIN"}
	SourceRolesString                // {"roles": ["ADMIN"]}
	SourceRolesObject                // {"roles": [{"name": "ADMIN"}]}
	SourceAuthorityString            // {"authorities": ["ROLE_ADMIN"]}
	SourceAuthorityObject            // {"authorities": [{"authority": "ROLE_ADMIN"}]}
)

func (s RoleSource) String() string {
	switch s {
	case SourceRoleField:
		return "role"
	case SourceRolesString:
		return "roles[string]"
	case SourceRolesObject:
		return "roles[object]"
	case SourceAuthorityString:
		return "authorities[string]"
	case SourceAuthorityObject:
		return "authorities[object]"
	}
	return "none"
}

// Resolution describes how a payload's role was resolved.
type Resolution struct {
	Role      models.Role
	Source    RoleSource
	Raw       string // role string as found in the payload
	Defaulted bool   // Role is DefaultRole because nothing usable was found
}

// roleObjectKeys are tried in order on object entries of "roles".
var roleObjectKeys = []string{"name", "role", "authority", "roleName"}

// roleAliases maps role names used by the upstream backend onto the
// portal's canonical roles.
var roleAliases = map[string]models.Role{
	"ENROLLMENT_OFFICER": models.RoleEnrollmentOffice,
}

// ResolveRole finds the role in raw. The first shape that yields a
// non-empty string wins: "role", then roles[0], then authorities[0].
func ResolveRole(raw RawUser) Resolution {
	found, src := findRole(raw)
	if found != "" {
		if role, ok := canonicalRole(found); ok {
			return Resolution{Role: role, Source: src, Raw: found}
		}
	}
	return Resolution{Role: DefaultRole, Source: src, Raw: found, Defaulted: true}
}

// User converts raw into a UserRecord with a canonical role.
func User(raw RawUser) models.UserRecord {
	u, _ := Resolve(raw)
	return u
}

// Resolve is User plus the role Resolution, for callers that log how the
// role was obtained.
func Resolve(raw RawUser) (models.UserRecord, Resolution) {
	res := ResolveRole(raw)
	email := stringValue(raw["email"])

	u := models.UserRecord{
		ID:        resolveID(raw, email),
		Email:     email,
		FirstName: stringValue(raw["firstName"]),
		LastName:  stringValue(raw["lastName"]),
		Role:      res.Role,
		Enabled:   true,
	}
	if b, ok := raw["enabled"].(bool); ok {
		u.Enabled = b
	}
	if t, ok := timeValue(raw["createdAt"]); ok {
		u.CreatedAt = t
	}
	if t, ok := timeValue(raw["updatedAt"]); ok {
		u.UpdatedAt = &t
	}
	return u, res
}

func findRole(raw RawUser) (string, RoleSource) {
	if s := stringValue(raw["role"]); s != "" {
		return s, SourceRoleField
	}

	if first, ok := firstElem(raw["roles"]); ok {
		if s, isStr := first.(string); isStr {
			if s = strings.TrimSpace(s); s != "" {
				return s, SourceRolesString
			}
		} else if obj, ok := asMap(first); ok {
			for _, key := range roleObjectKeys {
				if s := stringValue(obj[key]); s != "" {
					return s, SourceRolesObject
				}
			}
		}
	}

	if first, ok := firstElem(raw["authorities"]); ok {
		if s, isStr := first.(string); isStr {
			if s = stripRolePrefix(s); s != "" {
				return s, SourceAuthorityString
			}
		} else if obj, ok := asMap(first); ok {
			if s := stripRolePrefix(stringValue(obj["authority"])); s != "" {
				return s, SourceAuthorityObject
			}
		}
	}

	return "", SourceNone
}

func canonicalRole(s string) (models.Role, bool) {
	name := RoleName(s)
	if alias, ok := roleAliases[name]; ok {
		return alias, true
	}
	return models.ParseRole(name)
}

// resolveID prefers "id", then "_id", then the email address.
func resolveID(raw RawUser, email string) string {
	for _, key := range []string{"id", "_id"} {
		if s := idString(raw[key]); s != "" {
			return s
		}
	}
	return email
}

func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case primitive.ObjectID:
		return t.Hex()
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// firstElem returns the first element of a JSON or BSON array.
func firstElem(v any) (any, bool) {
	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			return t[0], true
		}
	case primitive.A:
		if len(t) > 0 {
			return t[0], true
		}
	case []string:
		if len(t) > 0 {
			return t[0], true
		}
	}
	return nil, false
}

// asMap accepts a JSON object or any of the BSON document types.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case primitive.M:
		return t, true
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

// localDateTimeLayouts covers zone-less timestamps as emitted by the
// upstream API in addition to RFC 3339.
var localDateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case primitive.DateTime:
		return t.Time().UTC(), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range localDateTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
