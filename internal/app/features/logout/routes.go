// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// Routes is not behind RequireSignedIn so a half-written or stale session
// can always be cleared.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	r.Post("/", h.ServeLogout)
	return r
}
