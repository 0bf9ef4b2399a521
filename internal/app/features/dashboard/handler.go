// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

// recentLimit caps the sign-in history shown on a dashboard.
const recentLimit = 5

// History is the read side of the login record store.
type History interface {
	Recent(ctx context.Context, userID string, limit int64) ([]models.LoginRecord, error)
	Latest(ctx context.Context, limit int64) ([]models.LoginRecord, error)
}

type Handler struct {
	History History
	Log     *zap.Logger
}

// NewHandler builds the dashboard handler. history may be nil, in which
// case dashboards render without sign-in activity.
func NewHandler(history History, logger *zap.Logger) *Handler {
	return &Handler{
		History: history,
		Log:     logger,
	}
}

// ServeDashboard sends a signed-in user to their own portal.
// GET /dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, portals.PathFor(u.Role), http.StatusSeeOther)
}
