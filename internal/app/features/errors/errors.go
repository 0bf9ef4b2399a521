// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// wrongPortalData is the view model for the wrong-portal interstitial.
type wrongPortalData struct {
	viewdata.BaseVM
	Choice portals.Choice
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "")
}

// WrongPortal renders the interstitial for ?attempted=ROLE. It is the
// HX-Redirect target used when an HTMX request hits another role's portal.
// GET /wrong-portal
func (h *Handler) WrongPortal(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil {
		RenderUnauthorized(w, r, "")
		return
	}

	attempted := models.Role(query.Get(r, "attempted"))
	if role, ok := models.ParseRole(string(attempted)); ok {
		attempted = role
	}

	// Nothing is wrong if the user asked for their own portal.
	if attempted == u.Role {
		http.Redirect(w, r, portals.PathFor(u.Role), http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "error_wrong_portal", newWrongPortalData(r, u.Role, attempted))
}

func newWrongPortalData(r *http.Request, userRole, attempted models.Role) wrongPortalData {
	choice := portals.Interstitial(userRole, attempted, auth.LoginPath(r))
	return wrongPortalData{
		BaseVM: viewdata.NewBaseVM(r, "Wrong portal", choice.Primary.URL),
		Choice: choice,
	}
}
