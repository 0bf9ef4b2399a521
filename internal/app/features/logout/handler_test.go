package logout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/features/logout"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

const testKey = "test-session-key-for-testing-only-0123456789"

func newTestHandler(t *testing.T, backend string) (*logout.Handler, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(auth.Config{
		Key:     testKey,
		Name:    "test-session",
		TTL:     24 * time.Hour,
		Backend: backend,
	}, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sm, logger), sm
}

// signIn stores a session through sm and returns the cookies a browser
// would send back.
func signIn(t *testing.T, sm *auth.SessionManager) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	u := models.UserRecord{ID: "s1", Email: "s@school.test", Role: models.RoleStudent, Enabled: true}
	if err := sm.Repository(rec, req).Set(context.Background(), "tok", u); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	return rec.Result().Cookies()
}

func TestServeLogout_RedirectsToLogin(t *testing.T) {
	h, _ := newTestHandler(t, auth.BackendCookie)
	rec := httptest.NewRecorder()

	h.ServeLogout(rec, httptest.NewRequest("GET", "/logout", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location: got %q, want %q", loc, "/login")
	}
}

func TestServeLogout_HTMX_ReturnsHXRedirect(t *testing.T) {
	h, _ := newTestHandler(t, auth.BackendCookie)
	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	h.ServeLogout(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect: got %q, want %q", got, "/login")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for HTMX, got %d", http.StatusOK, rec.Code)
	}
}

func TestServeLogout_ClearsSession(t *testing.T) {
	for _, backend := range []string{auth.BackendCookie, auth.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			h, sm := newTestHandler(t, backend)

			var cleared []models.UserRecord
			sm.Subscribe(session.ObserverFunc(func(_ context.Context, c session.Change) {
				if c.Kind == session.Cleared {
					cleared = append(cleared, c.User)
				}
			}))

			cookies := signIn(t, sm)

			req := httptest.NewRequest("GET", "/logout", nil)
			for _, c := range cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			h.ServeLogout(rec, req)

			if len(cleared) != 1 || cleared[0].ID != "s1" {
				t.Errorf("cleared notifications = %+v", cleared)
			}

			var expired bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == "test-session" && c.MaxAge < 0 {
					expired = true
				}
			}
			if !expired {
				t.Error("expected the session cookie to be expired")
			}

			// Replaying the old cookie finds nothing in the server-side store
			// either.
			next := httptest.NewRequest("GET", "/student/dashboard", nil)
			for _, c := range cookies {
				next.AddCookie(c)
			}
			if backend == auth.BackendMemory {
				got, err := sm.Repository(httptest.NewRecorder(), next).Get(context.Background())
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if got.Authenticated() || got.User != nil {
					t.Errorf("session after logout = %+v", got)
				}
			}
		})
	}
}
