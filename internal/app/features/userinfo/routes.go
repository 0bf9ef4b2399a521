// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /api/me on the supplied router. Callers
// without a session get the guard's JSON 401.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/api/me", h.ServeMe)
}
