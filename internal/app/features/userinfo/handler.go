// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/domain/models"
)

// Handler serves the signed-in user's record to scripts on the page.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type meResponse struct {
	User       models.UserRecord `json:"user"`
	RoleLabel  string            `json:"roleLabel"`
	PortalPath string            `json:"portalPath"`
	PortalName string            `json:"portalName"`
}

// ServeMe returns the current UserRecord with its portal. It runs behind
// RequireSignedIn, so a missing user here is a wiring error.
//
//	{ "user": {...}, "roleLabel": "Teacher", "portalPath": "/teacher/dashboard", "portalName": "Teacher Portal" }
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	u, ok := auth.CurrentUser(r)
	if !ok || u == nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	p, _ := portals.For(u.Role)
	_ = json.NewEncoder(w).Encode(meResponse{
		User:       *u,
		RoleLabel:  u.Role.Label(),
		PortalPath: portals.PathFor(u.Role),
		PortalName: p.Name,
	})
}
