// Package portals holds the static role → portal mapping and the choices
// offered to a user who opened another role's portal.
package portals

import "github.com/dalemusser/schoolhub/internal/domain/models"

// LoginURL is where the interstitial's secondary action leads when no
// login path is configured.
const LoginURL = "/login"

// Portal is one role's landing area.
type Portal struct {
	Role models.Role
	Path string
	Name string
}

var portals = map[models.Role]Portal{
	models.RoleStudent:          {Role: models.RoleStudent, Path: "/student/dashboard", Name: "Student Portal"},
	models.RoleTeacher:          {Role: models.RoleTeacher, Path: "/teacher/dashboard", Name: "Teacher Portal"},
	models.RoleEnrollmentOffice: {Role: models.RoleEnrollmentOffice, Path: "/enrollment-office/dashboard", Name: "Enrollment Office Portal"},
	models.RoleAdmin:            {Role: models.RoleAdmin, Path: "/admin/dashboard", Name: "Admin Portal"},
}

// For returns the portal of role.
func For(role models.Role) (Portal, bool) {
	p, ok := portals[role]
	return p, ok
}

// PathFor returns the portal path of role, or "/" for an unknown role.
func PathFor(role models.Role) string {
	if p, ok := portals[role]; ok {
		return p.Path
	}
	return "/"
}

// All returns every portal in the same order as models.AllRoles.
func All() []Portal {
	out := make([]Portal, 0, len(models.AllRoles))
	for _, opt := range models.AllRoles {
		out = append(out, portals[opt.Value])
	}
	return out
}

// Action is a labelled link.
type Action struct {
	Label string
	URL   string
}

// Choice is what the wrong-portal page shows.
type Choice struct {
	UserRole      models.Role
	UserRoleLabel string
	UserPortal    string
	Attempted     models.Role
	AttemptedName string
	Primary       Action
	Secondary     Action
}

// Interstitial builds the choices for a user with userRole who asked for
// the attempted portal. The primary action always targets the user's own
// portal. The secondary action only navigates to loginPath (LoginURL when
// empty); signing out is left to that page.
func Interstitial(userRole, attempted models.Role, loginPath string) Choice {
	if loginPath == "" {
		loginPath = LoginURL
	}
	own, ok := portals[userRole]
	if !ok {
		own = Portal{Role: userRole, Path: "/", Name: "Home"}
	}

	attemptedName := "Portal"
	if p, ok := portals[attempted]; ok {
		attemptedName = p.Name
	}

	return Choice{
		UserRole:      userRole,
		UserRoleLabel: userRole.Label(),
		UserPortal:    own.Name,
		Attempted:     attempted,
		AttemptedName: attemptedName,
		Primary:       Action{Label: "Go to " + own.Name, URL: own.Path},
		Secondary:     Action{Label: "Back to Login", URL: loginPath},
	}
}
