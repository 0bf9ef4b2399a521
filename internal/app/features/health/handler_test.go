package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/schoolhub/internal/app/features/health"
	"github.com/dalemusser/schoolhub/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Errors map[string]string `json:"errors"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_DatabaseConnected(t *testing.T) {
	// Set up a test database to get a connected client
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(zap.NewNop(), health.MongoCheck("database", db.Client()))

	rec, resp := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if resp.Status != "ok" || resp.Checks["database"] != "connected" {
		t.Errorf("response = %+v", resp)
	}
}

func TestServe_FailingCheck(t *testing.T) {
	ok := health.Check{Name: "database", Ping: func(context.Context) error { return nil }}
	bad := health.Check{Name: "sessions", Ping: func(context.Context) error { return errors.New("connection refused") }}
	handler := health.NewHandler(zap.NewNop(), ok, bad)

	rec, resp := serve(t, handler)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" {
		t.Errorf("status: got %q, want error", resp.Status)
	}
	if resp.Checks["database"] != "connected" || resp.Checks["sessions"] != "disconnected" {
		t.Errorf("checks = %v", resp.Checks)
	}
	if resp.Errors["sessions"] != "connection refused" {
		t.Errorf("errors = %v", resp.Errors)
	}
}

func TestServe_NoChecks(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(zap.NewNop(), health.Check{Name: "skipped"}))

	if rec.Code != http.StatusOK || resp.Status != "ok" || len(resp.Checks) != 0 {
		t.Errorf("code %d, response %+v", rec.Code, resp)
	}
}
