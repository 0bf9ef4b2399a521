// internal/app/features/dashboard/common.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

// card is one tile on a dashboard.
type card struct {
	Title string
	Body  string
	Href  string // optional link
}

// dashboardData is shared by every portal dashboard.
type dashboardData struct {
	viewdata.BaseVM
	Portal       portals.Portal
	User         models.UserRecord
	Cards        []card
	RecentLogins []models.LoginRecord
}

// loadBase fills the parts common to every portal. The guard has already
// admitted the request, so the user is present.
func (h *Handler) loadBase(r *http.Request, role models.Role) dashboardData {
	p, _ := portals.For(role)
	data := dashboardData{
		BaseVM: viewdata.NewBaseVM(r, p.Name, "/"),
		Portal: p,
	}
	if u, ok := auth.CurrentUser(r); ok {
		data.User = *u
		data.RecentLogins = h.recent(r, u.ID)
	}
	return data
}

func (h *Handler) recent(r *http.Request, userID string) []models.LoginRecord {
	if h.History == nil {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "recent logins")
	defer cancel()

	recs, err := h.History.Recent(ctx, userID, recentLimit)
	if err != nil {
		h.Log.Warn("recent logins lookup failed", zap.Error(err), zap.String("user_id", userID))
		return nil
	}
	return recs
}
