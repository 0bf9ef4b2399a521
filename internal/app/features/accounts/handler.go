// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/schoolhub/internal/app/features/errors"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// pendingLimit caps the approval queue shown on one page.
const pendingLimit = 100

const (
	listPath        = "/admin/accounts"
	msgApproved     = "Account approved. The user can sign in now."
	msgExternalAuth = "Accounts are managed by the external sign-in service."
)

// Directory is the part of the user directory this feature needs.
type Directory interface {
	Pending(ctx context.Context, limit int64) ([]models.DirectoryUser, error)
	SetEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error
}

// Handler serves the admin approval queue. Dir is nil when sign-in is
// delegated to the upstream API, which then owns account state.
type Handler struct {
	Dir    Directory
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(dir Directory, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Dir: dir, ErrLog: errLog, Log: logger}
}

type accountRow struct {
	ID        string
	Name      string
	Email     string
	RoleLabel string
	Requested string
}

type accountsData struct {
	viewdata.BaseVM
	Notice   string
	External bool
	Accounts []accountRow
}

// ServeList handles GET /admin/accounts.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	data := accountsData{BaseVM: viewdata.NewBaseVM(r, "Accounts", "/admin/dashboard")}
	if query.Get(r, "approved") != "" {
		data.Notice = msgApproved
	}
	if h.Dir == nil {
		data.External = true
		data.Notice = msgExternalAuth
		templates.Render(w, r, "admin_accounts", data)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "pending accounts")
	defer cancel()

	users, err := h.Dir.Pending(ctx, pendingLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "pending accounts lookup failed", err, "Unable to load accounts.", "/admin/dashboard")
		return
	}

	data.Accounts = make([]accountRow, 0, len(users))
	for _, u := range users {
		role := models.Role(normalize.RoleName(firstRole(u.Roles)))
		data.Accounts = append(data.Accounts, accountRow{
			ID:        u.ID.Hex(),
			Name:      models.UserRecord{FirstName: u.FirstName, LastName: u.LastName}.FullName(),
			Email:     u.Email,
			RoleLabel: role.Label(),
			Requested: u.CreatedAt.Format("Jan 2, 2006"),
		})
	}
	templates.Render(w, r, "admin_accounts", data)
}

// HandleApprove handles POST /admin/accounts/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	if h.Dir == nil {
		uierrors.RenderError(w, r, http.StatusNotFound, "Not available", msgExternalAuth, listPath)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad account id", err, "Invalid account.", listPath)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "approve account")
	defer cancel()

	if err := h.Dir.SetEnabled(ctx, id, true); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.RenderError(w, r, http.StatusNotFound, "Not found", "That account no longer exists.", listPath)
			return
		}
		h.ErrLog.LogServerError(w, r, "approve account failed", err, "Unable to approve the account.", listPath)
		return
	}

	var adminID string
	if u, ok := auth.CurrentUser(r); ok {
		adminID = u.ID
	}
	h.Log.Info("account approved",
		zap.String("account_id", id.Hex()),
		zap.String("approved_by", adminID))

	dest := listPath + "?approved=1"
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func firstRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	return roles[0]
}
