package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check pings one backend.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// MongoCheck pings the primary.
func MongoCheck(name string, client *mongo.Client) Check {
	return Check{Name: name, Ping: func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}}
}

// RedisCheck sends PING.
func RedisCheck(name string, client redis.UniversalClient) Check {
	return Check{Name: name, Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Checks []Check
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. Nil checks are skipped.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	h := &Handler{Log: logger}
	for _, c := range checks {
		if c.Ping != nil {
			h.Checks = append(h.Checks, c)
		}
	}
	return h
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "checks":{"database":"connected","sessions":"connected"} }
//
// On any failure: 503 and
//
//	{ "status":"error", "checks":{"database":"disconnected"}, "message":"Backend unavailable", "errors":{"database":"…"} }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status: "ok",
		Checks: make(map[string]string, len(h.Checks)),
	}

	for _, c := range h.Checks {
		if err := c.Ping(ctx); err != nil {
			h.Log.Error("health-check: ping failed", zap.String("check", c.Name), zap.Error(err))
			resp.Status = "error"
			resp.Checks[c.Name] = "disconnected"
			if resp.Errors == nil {
				resp.Errors = map[string]string{}
			}
			resp.Errors[c.Name] = err.Error()
			continue
		}
		resp.Checks[c.Name] = "connected"
	}

	if resp.Status != "ok" {
		resp.Message = "Backend unavailable"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
