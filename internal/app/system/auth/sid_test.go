package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

// orphanCookie returns a cookie whose stored session has a token but no user.
func orphanCookie(t *testing.T, m *SessionManager) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	var b session.Backend
	if m.keyed == nil {
		b = session.NewCookieBackend(m.store, m.name, rec, req)
	} else {
		b = &sidBackend{m: m, w: rec, r: req}
	}
	if err := b.Write(req.Context(), session.Entries{Token: "orphan"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return finalCookie(rec, m.name)
}

func finalCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			last = c
		}
	}
	return last
}

func TestLoadSessionUser_HealThenSignInSameRequest(t *testing.T) {
	for _, backend := range []string{BackendCookie, BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			m, err := NewSessionManager(Config{
				Key:     "test-session-key-must-be-32-chars-long",
				Name:    "test-session",
				TTL:     time.Hour,
				Backend: backend,
			}, zap.NewNop())
			if err != nil {
				t.Fatalf("NewSessionManager: %v", err)
			}
			admin := models.UserRecord{ID: "a1", Email: "admin@school.test", Role: models.RoleAdmin, Enabled: true}

			login := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := CurrentUser(r); ok {
					t.Error("inconsistent session should read as signed out")
				}
				if err := m.Repository(w, r).Set(r.Context(), "fresh", admin); err != nil {
					t.Errorf("Set: %v", err)
				}
			}))
			req := httptest.NewRequest("POST", "/login", nil)
			req.AddCookie(orphanCookie(t, m))
			rec := httptest.NewRecorder()
			login.ServeHTTP(rec, req)

			kept := finalCookie(rec, m.name)
			if kept == nil || kept.MaxAge < 0 {
				t.Fatalf("final cookie = %+v, want a live session cookie", kept)
			}

			var got models.Session
			next := m.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = CurrentSession(r)
			}))
			req = httptest.NewRequest("GET", "/admin/dashboard", nil)
			req.AddCookie(kept)
			next.ServeHTTP(httptest.NewRecorder(), req)

			if got.Token != "fresh" || got.User == nil || got.User.ID != "a1" {
				t.Errorf("session after sign in = %+v", got)
			}
		})
	}
}
