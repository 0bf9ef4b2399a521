// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/guard"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// RenderUnauthorized shows a friendly “sign in required” page.
// If backURL is empty, it defaults to the configured login path.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = auth.LoginPath(r)
	}
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Sign in required", backURL),
		Message: "Please sign in to continue.",
	}
	data.BackURL = backURL

	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_forbidden", data)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Access denied", "/"),
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_forbidden", data)
}

// RenderWrongPortal renders the wrong-portal interstitial in place with a
// 403 status. It matches auth.WrongPortalRenderer.
func RenderWrongPortal(w http.ResponseWriter, r *http.Request, res guard.Result, attempted models.Role) {
	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_wrong_portal", newWrongPortalData(r, res.WrongRole, attempted))
}

// RenderError shows a generic error page with the given status.
func RenderError(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, "/"),
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}

	w.WriteHeader(status)
	templates.Render(w, r, "error_forbidden", data)
}
