package guard_test

import (
	"testing"

	"github.com/dalemusser/schoolhub/internal/app/system/guard"
	"github.com/dalemusser/schoolhub/internal/domain/models"
)

func signedIn(role models.Role) models.Session {
	return models.Session{
		Token: "tok",
		User:  &models.UserRecord{ID: "u1", Email: "u1@school.test", Role: role, Enabled: true},
	}
}

func TestInitial(t *testing.T) {
	res := guard.Initial()
	if res.State != guard.Checking || !res.IsLoading {
		t.Errorf("Initial() = %+v, want Checking with IsLoading", res)
	}
	if res.IsAuthenticated || res.IsAuthorized {
		t.Error("Initial() must not grant access")
	}
}

func TestEvaluate_NoTokenRedirectsToLogin(t *testing.T) {
	res := guard.Evaluate(guard.Input{
		Required:  models.RoleAdmin,
		Path:      "/admin/dashboard",
		LoginPath: "/login",
	})

	if res.State != guard.Unauthenticated {
		t.Fatalf("State = %v, want UNAUTHENTICATED", res.State)
	}
	if res.IsAuthenticated || res.IsAuthorized || res.IsLoading {
		t.Errorf("flags = %+v, want all false", res)
	}
	if res.WrongRole != "" {
		t.Errorf("WrongRole = %q, want empty", res.WrongRole)
	}
	if want := "/login?redirect=%2Fadmin%2Fdashboard"; res.RedirectTo != want {
		t.Errorf("RedirectTo = %q, want %q", res.RedirectTo, want)
	}
	if res.ClearSession {
		t.Error("an empty session needs no clearing")
	}
}

func TestEvaluate_WrongRoleDoesNotNavigate(t *testing.T) {
	res := guard.Evaluate(guard.Input{
		Required: models.RoleAdmin,
		Session:  signedIn(models.RoleTeacher),
		Path:     "/admin/dashboard",
	})

	if res.State != guard.WrongRole {
		t.Fatalf("State = %v, want WRONG_ROLE", res.State)
	}
	if !res.IsAuthenticated || res.IsAuthorized || res.IsLoading {
		t.Errorf("flags = %+v", res)
	}
	if res.WrongRole != models.RoleTeacher {
		t.Errorf("WrongRole = %q, want TEACHER", res.WrongRole)
	}
	if res.RedirectTo != "" {
		t.Errorf("RedirectTo = %q, want none", res.RedirectTo)
	}
}

func TestEvaluate_MatchingRoleIsAuthorized(t *testing.T) {
	res := guard.Evaluate(guard.Input{
		Required: models.RoleAdmin,
		Session:  signedIn(models.RoleAdmin),
		Path:     "/admin/dashboard",
	})

	if res.State != guard.Authorized {
		t.Fatalf("State = %v, want AUTHORIZED", res.State)
	}
	if !res.IsAuthenticated || !res.IsAuthorized || res.IsLoading {
		t.Errorf("flags = %+v", res)
	}
	if res.WrongRole != "" {
		t.Errorf("WrongRole = %q, want empty", res.WrongRole)
	}
	if res.User == nil || res.Role != models.RoleAdmin {
		t.Errorf("User/Role = %+v/%q", res.User, res.Role)
	}
}

func TestEvaluate_NoRequirementAcceptsAnyRole(t *testing.T) {
	for _, opt := range models.AllRoles {
		res := guard.Evaluate(guard.Input{Session: signedIn(opt.Value), Path: "/api/me"})
		if res.State != guard.Authorized {
			t.Errorf("role %s: State = %v, want AUTHORIZED", opt.Value, res.State)
		}
	}
}

func TestEvaluate_TokenWithoutUserClearsSession(t *testing.T) {
	res := guard.Evaluate(guard.Input{
		Required: models.RoleStudent,
		Session:  models.Session{Token: "tok"},
		Path:     "/student/dashboard",
	})

	if res.State != guard.Unauthenticated {
		t.Fatalf("State = %v, want UNAUTHENTICATED", res.State)
	}
	if !res.ClearSession {
		t.Error("ClearSession = false, want true")
	}
	if want := "/login?redirect=%2Fstudent%2Fdashboard"; res.RedirectTo != want {
		t.Errorf("RedirectTo = %q, want %q", res.RedirectTo, want)
	}
}

func TestEvaluate_RerunReflectsCurrentSession(t *testing.T) {
	in := guard.Input{Required: models.RoleStudent, Session: signedIn(models.RoleStudent), Path: "/student/dashboard"}
	if got := guard.Evaluate(in).State; got != guard.Authorized {
		t.Fatalf("first run = %v", got)
	}

	in.Session = models.Session{}
	in.Path = "/student/courses"
	if got := guard.Evaluate(in).State; got != guard.Unauthenticated {
		t.Errorf("second run = %v, want UNAUTHENTICATED", got)
	}
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		login, path, want string
	}{
		{"/login", "/teacher/dashboard", "/login?redirect=%2Fteacher%2Fdashboard"},
		{"", "/admin/dashboard", "/login?redirect=%2Fadmin%2Fdashboard"},
		{"/signin", "", "/signin"},
		{"/login", "/a b&c", "/login?redirect=%2Fa+b%26c"},
	}
	for _, tt := range tests {
		if got := guard.LoginRedirect(tt.login, tt.path); got != tt.want {
			t.Errorf("LoginRedirect(%q, %q) = %q, want %q", tt.login, tt.path, got, tt.want)
		}
	}
}
