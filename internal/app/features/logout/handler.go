// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout handles GET and POST /logout. The token and the user are
// removed together; a visitor without a session is simply sent on.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "session clear")
	defer cancel()

	if err := h.SessionMgr.Repository(w, r).Clear(ctx); err != nil {
		// The next guard run treats whatever is left as signed out.
		h.Log.Error("logout: clear session", zap.Error(err))
	}

	dest := h.SessionMgr.LoginPath()
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
