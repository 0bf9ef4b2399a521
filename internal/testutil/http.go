package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserWithRole returns a signed-in test user of the given role.
func UserWithRole(role models.Role) *models.UserRecord {
	first := role.Label()
	return &models.UserRecord{
		ID:        primitive.NewObjectID().Hex(),
		Email:     strings.ToLower(string(role)) + "@test.com",
		FirstName: "Test",
		LastName:  first,
		Role:      role,
		Enabled:   true,
	}
}

// StudentUser returns a test user with the student role.
func StudentUser() *models.UserRecord { return UserWithRole(models.RoleStudent) }

// TeacherUser returns a test user with the teacher role.
func TeacherUser() *models.UserRecord { return UserWithRole(models.RoleTeacher) }

// EnrollmentOfficeUser returns a test user with the enrollment office role.
func EnrollmentOfficeUser() *models.UserRecord { return UserWithRole(models.RoleEnrollmentOffice) }

// AdminUser returns a test user with the admin role.
func AdminUser() *models.UserRecord { return UserWithRole(models.RoleAdmin) }

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, u *models.UserRecord) *http.Request {
	return auth.WithTestUser(r, u)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewHTMLRequest creates a request that accepts text/html.
func NewHTMLRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html")
	return req
}

// NewAuthenticatedRequest creates an HTML request with a user in context.
func NewAuthenticatedRequest(method, target string, u *models.UserRecord) *http.Request {
	return WithUser(NewHTMLRequest(method, target), u)
}

// NewFormRequest creates a urlencoded POST request.
func NewFormRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertNotContains checks that the response body does not contain s.
func (r *ResponseRecorder) AssertNotContains(t interface{ Errorf(string, ...any) }, s string) {
	if strings.Contains(r.Body.String(), s) {
		t.Errorf("response body unexpectedly contains %q", s)
	}
}
