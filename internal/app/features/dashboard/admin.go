// internal/app/features/dashboard/admin.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// adminActivityLimit caps the school-wide sign-in feed.
const adminActivityLimit = 20

type adminData struct {
	dashboardData
	Portals  []portals.Portal
	Activity []models.LoginRecord
}

func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	data := adminData{
		dashboardData: h.loadBase(r, models.RoleAdmin),
		Portals:       portals.All(),
	}
	data.Cards = []card{
		{Title: "Accounts", Body: "Approve staff registrations.", Href: "/admin/accounts"},
		{Title: "Portals", Body: "Where each role lands after sign-in."},
	}

	if h.History != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "latest logins")
		defer cancel()
		recs, err := h.History.Latest(ctx, adminActivityLimit)
		if err != nil {
			h.Log.Warn("latest logins lookup failed", zap.Error(err))
		}
		data.Activity = recs
	}

	h.Log.Debug("admin dashboard served", zap.String("user_id", data.User.ID))
	templates.Render(w, r, "admin_dashboard", data)
}
