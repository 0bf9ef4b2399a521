package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/schoolhub/internal/app/features/errors"
	"github.com/dalemusser/schoolhub/internal/app/features/login"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testKey = "test-session-key-for-testing-only-0123456789"

// fakeProvider accepts password "pw" for every user it knows.
type fakeProvider struct {
	users map[string]normalize.RawUser
}

func (p *fakeProvider) Login(_ context.Context, email, password string) (string, error) {
	if _, ok := p.users[email]; !ok || password != "pw" {
		return "", identity.ErrInvalidCredentials
	}
	return "tok:" + email, nil
}

func (p *fakeProvider) Me(_ context.Context, token string) (normalize.RawUser, error) {
	u, ok := p.users[strings.TrimPrefix(token, "tok:")]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return u, nil
}

func (p *fakeProvider) Register(context.Context, identity.Registration) (normalize.RawUser, error) {
	return nil, nil
}

func newProvider() *fakeProvider {
	return &fakeProvider{users: map[string]normalize.RawUser{
		"teacher@school.test": {"id": "t1", "email": "teacher@school.test", "roles": []any{"ROLE_TEACHER"}, "enabled": true},
		"norole@school.test":  {"id": "n1", "email": "norole@school.test", "enabled": true},
		"off@school.test":     {"id": "o1", "email": "off@school.test", "role": "ADMIN", "enabled": false},
	}}
}

func newTestHandler(t *testing.T, logger *zap.Logger, limiter *ratelimit.LoginLimiter) (*login.Handler, *auth.SessionManager) {
	t.Helper()
	sm, err := auth.NewSessionManager(auth.Config{Key: testKey, Name: "test-session", TTL: time.Hour}, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return login.NewHandler(newProvider(), sm, limiter, uierrors.NewErrorLogger(logger), logger), sm
}

func postLogin(form url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// render runs fn, ignoring a panic from the template engine, which is not
// booted in unit tests.
func render(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func TestHandleLoginPost_SuccessGoesToPortal(t *testing.T) {
	h, sm := newTestHandler(t, zap.NewNop(), nil)

	rec := httptest.NewRecorder()
	h.HandleLoginPost(rec, postLogin(url.Values{"email": {" Teacher@School.test "}, "password": {"pw"}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/teacher/dashboard" {
		t.Errorf("Location = %q, want /teacher/dashboard", loc)
	}

	// The saved session is visible on the next request.
	next := httptest.NewRequest("GET", "/teacher/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	var got models.Session
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.CurrentSession(r)
	})).ServeHTTP(httptest.NewRecorder(), next)

	if got.Token != "tok:teacher@school.test" {
		t.Errorf("token = %q", got.Token)
	}
	if got.User == nil || got.User.Role != models.RoleTeacher {
		t.Errorf("user = %+v, want TEACHER", got.User)
	}
}

func TestHandleLoginPost_Redirects(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		want     string
	}{
		{"safe local path", "/teacher/classes", "/teacher/classes"},
		{"external url", "https://evil.example/x", "/teacher/dashboard"},
		{"protocol relative", "//evil.example", "/teacher/dashboard"},
		{"login loop", "/login", "/teacher/dashboard"},
		{"empty", "", "/teacher/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, zap.NewNop(), nil)
			rec := httptest.NewRecorder()
			h.HandleLoginPost(rec, postLogin(url.Values{
				"email":    {"teacher@school.test"},
				"password": {"pw"},
				"redirect": {tt.redirect},
			}))
			if loc := rec.Header().Get("Location"); loc != tt.want {
				t.Errorf("Location = %q, want %q", loc, tt.want)
			}
		})
	}
}

func TestHandleLoginPost_ConfiguredLoginPathIsNotAReturnTarget(t *testing.T) {
	sm, err := auth.NewSessionManager(auth.Config{Key: testKey, Name: "test-session", TTL: time.Hour, LoginPath: "/signin"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := login.NewHandler(newProvider(), sm, nil, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleLoginPost(rec, postLogin(url.Values{
		"email":    {"teacher@school.test"},
		"password": {"pw"},
		"redirect": {"/signin?redirect=%2Fadmin"},
	}))
	if loc := rec.Header().Get("Location"); loc != "/teacher/dashboard" {
		t.Errorf("Location = %q, want /teacher/dashboard", loc)
	}
}

func TestHandleLoginPost_HTMX(t *testing.T) {
	h, _ := newTestHandler(t, zap.NewNop(), nil)
	req := postLogin(url.Values{"email": {"teacher@school.test"}, "password": {"pw"}})
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	h.HandleLoginPost(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/teacher/dashboard" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestHandleLoginPost_DefaultedRoleIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h, _ := newTestHandler(t, zap.New(core), nil)
	rec := httptest.NewRecorder()

	h.HandleLoginPost(rec, postLogin(url.Values{"email": {"norole@school.test"}, "password": {"pw"}}))

	if loc := rec.Header().Get("Location"); loc != "/student/dashboard" {
		t.Errorf("Location = %q, want /student/dashboard", loc)
	}
	if logs.FilterMessage("user role could not be resolved; defaulting").Len() != 1 {
		t.Error("expected a warning about the defaulted role")
	}
}

func TestHandleLoginPost_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		email string
		pw    string
	}{
		{"wrong password", "teacher@school.test", "nope"},
		{"unknown user", "who@school.test", "pw"},
		{"disabled account", "off@school.test", "pw"},
		{"missing password", "teacher@school.test", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, zap.NewNop(), nil)
			rec := httptest.NewRecorder()
			render(func() {
				h.HandleLoginPost(rec, postLogin(url.Values{"email": {tt.email}, "password": {tt.pw}}))
			})
			if loc := rec.Header().Get("Location"); loc != "" {
				t.Errorf("unexpected redirect to %q", loc)
			}
			for _, c := range rec.Result().Cookies() {
				if c.Name == "test-session" {
					t.Error("no session cookie expected on failure")
				}
			}
		})
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter(ratelimit.LoginConfig{IPLimit: 100, EmailLimit: 1})
	defer limiter.Stop()
	h, _ := newTestHandler(t, zap.NewNop(), limiter)

	render(func() {
		h.HandleLoginPost(httptest.NewRecorder(), postLogin(url.Values{"email": {"teacher@school.test"}, "password": {"bad"}}))
	})

	rec := httptest.NewRecorder()
	render(func() {
		h.HandleLoginPost(rec, postLogin(url.Values{"email": {"teacher@school.test"}, "password": {"pw"}}))
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
}

func TestServeLogin_SignedInUserIsForwarded(t *testing.T) {
	h, _ := newTestHandler(t, zap.NewNop(), nil)
	req := httptest.NewRequest("GET", "/login?redirect=/enrollment-office/students", nil)
	req = auth.WithTestUser(req, &models.UserRecord{ID: "e1", Role: models.RoleEnrollmentOffice})
	rec := httptest.NewRecorder()

	h.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/enrollment-office/students" {
		t.Errorf("Location = %q", loc)
	}
}
