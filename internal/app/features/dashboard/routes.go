// internal/app/features/dashboard/routes.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes serves /dashboard, which forwards to the caller's own portal.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})
	return r
}

// PortalRoutes serves one role's portal. Everything under it is guarded,
// so a user of another role gets the wrong-portal interstitial, not a 404.
func PortalRoutes(h *Handler, sm *auth.SessionManager, role models.Role) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequirePortal(role))
	r.Get("/dashboard", h.dashboardFor(role))
	return r
}

func (h *Handler) dashboardFor(role models.Role) http.HandlerFunc {
	switch role {
	case models.RoleTeacher:
		return h.ServeTeacher
	case models.RoleEnrollmentOffice:
		return h.ServeEnrollmentOffice
	case models.RoleAdmin:
		return h.ServeAdmin
	default:
		return h.ServeStudent
	}
}
