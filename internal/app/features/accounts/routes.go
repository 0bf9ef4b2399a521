// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the approval queue, typically at /admin/accounts. It sits
// behind the admin portal guard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequirePortal(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Post("/{id}/approve", h.HandleApprove)
	return r
}
