package userinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/schoolhub/internal/app/features/userinfo"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	sm, err := auth.NewSessionManager(auth.Config{Key: "test-session-key-for-testing-only-0123456789"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	r := chi.NewRouter()
	userinfo.MountRoutes(r, userinfo.NewHandler(), sm)
	return r
}

func TestServeMe_SignedOut(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, httptest.NewRequest("GET", "/api/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "unauthorized" || body["redirect"] != "/login?redirect=%2Fapi%2Fme" {
		t.Errorf("body = %v", body)
	}
}

func TestServeMe_SignedIn(t *testing.T) {
	u := &models.UserRecord{ID: "e7", Email: "office@school.test", FirstName: "Olga", Role: models.RoleEnrollmentOffice, Enabled: true}
	req := auth.WithTestUser(httptest.NewRequest("GET", "/api/me", nil), u)
	rec := httptest.NewRecorder()

	newRouter(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body struct {
		User       models.UserRecord `json:"user"`
		RoleLabel  string            `json:"roleLabel"`
		PortalPath string            `json:"portalPath"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.User.ID != "e7" || body.User.Role != models.RoleEnrollmentOffice {
		t.Errorf("user = %+v", body.User)
	}
	if body.RoleLabel != "Enrollment Office" || body.PortalPath != "/enrollment-office/dashboard" {
		t.Errorf("label/path = %q %q", body.RoleLabel, body.PortalPath)
	}
}

func TestServeMe_DirectCallWithoutUser(t *testing.T) {
	rec := httptest.NewRecorder()
	userinfo.NewHandler().ServeMe(rec, httptest.NewRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
