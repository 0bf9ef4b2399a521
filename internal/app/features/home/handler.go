// internal/app/features/home/handler.go
package home

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the public landing page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type homeData struct {
	viewdata.BaseVM
	Portals []portals.Portal
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "home", homeData{
		BaseVM:  viewdata.NewBaseVM(r, "Welcome", "/"),
		Portals: portals.All(),
	})
}
