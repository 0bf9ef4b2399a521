// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/schoolhub/internal/app/features/errors"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/authapi"
	"github.com/dalemusser/schoolhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// MaxPasswordLength is the longest password accepted, in bytes. bcrypt
// ignores everything past 72 bytes.
const MaxPasswordLength = 72

const (
	msgRequired      = "Please fill in your name, email, password and role."
	msgPasswordMatch = "Passwords do not match"
	msgPasswordShort = "Password must be at least 6 characters"
	msgPasswordLong  = "Password must be at most 72 bytes"
	msgBadRole       = "Please choose a valid role."
	msgDuplicate     = "An account with this email already exists."
	msgFailed        = "Registration failed. Please try again."
)

// SelfServiceRoles are the roles a visitor may pick. Admin accounts are
// created by other administrators.
var SelfServiceRoles = []models.RoleOption{
	{Value: models.RoleStudent, Label: models.RoleStudent.Label()},
	{Value: models.RoleTeacher, Label: models.RoleTeacher.Label()},
	{Value: models.RoleEnrollmentOffice, Label: models.RoleEnrollmentOffice.Label()},
}

type Handler struct {
	Provider identity.Provider
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(provider identity.Provider, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Provider: provider,
		ErrLog:   errLog,
		Log:      logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// formInput is what the visitor typed, echoed back on error. Passwords are
// never echoed.
type formInput struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
	Role        models.Role
}

type registerFormData struct {
	viewdata.BaseVM
	Error string
	Form  formInput
	Roles []models.RoleOption
}

type pendingData struct {
	viewdata.BaseVM
	FirstName string
	RoleLabel string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Register", auth.LoginPath(r)),
		Form:   formInput{Role: models.RoleStudent},
		Roles:  SelfServiceRoles,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	reg, in, msg := h.parseForm(r)
	if msg != "" {
		h.renderFormWithError(w, r, msg, in)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "identity register")
	defer cancel()

	if _, err := h.Provider.Register(ctx, reg); err != nil {
		var apiErr *authapi.Error
		switch {
		case errors.Is(err, identity.ErrDuplicateEmail):
			h.renderFormWithError(w, r, msgDuplicate, in)
		case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Message != "":
			h.renderFormWithError(w, r, htmlsanitize.StripTags(apiErr.Message), in)
		default:
			h.Log.Error("registration failed", zap.Error(err), zap.String("email", reg.Email))
			h.renderFormWithError(w, r, msgFailed, in)
		}
		return
	}

	h.Log.Info("user registered",
		zap.String("email", reg.Email),
		zap.String("role", string(reg.Role)))

	if reg.Role != models.RoleStudent {
		templates.Render(w, r, "register_pending", pendingData{
			BaseVM:    viewdata.NewBaseVM(r, "Registration received", "/"),
			FirstName: reg.FirstName,
			RoleLabel: reg.Role.Label(),
		})
		return
	}

	dest := auth.LoginPath(r) + "?registered=1"
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// parseForm validates the registration form. A non-empty message means
// the form must be shown again.
func (h *Handler) parseForm(r *http.Request) (identity.Registration, formInput, string) {
	in := formInput{
		Email:       normalize.Email(r.FormValue("email")),
		FirstName:   htmlsanitize.StripTags(r.FormValue("firstName")),
		LastName:    htmlsanitize.StripTags(r.FormValue("lastName")),
		PhoneNumber: htmlsanitize.StripTags(r.FormValue("phoneNumber")),
		Address:     htmlsanitize.StripTags(r.FormValue("address")),
		Role:        models.Role(normalize.RoleName(r.FormValue("role"))),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	if in.Email == "" || in.FirstName == "" || in.LastName == "" || password == "" || in.Role == "" {
		return identity.Registration{}, in, msgRequired
	}
	if !selfService(in.Role) {
		return identity.Registration{}, in, msgBadRole
	}
	if password != confirm {
		return identity.Registration{}, in, msgPasswordMatch
	}
	if len(password) < MinPasswordLength {
		return identity.Registration{}, in, msgPasswordShort
	}
	if len(password) > MaxPasswordLength {
		return identity.Registration{}, in, msgPasswordLong
	}

	return identity.Registration{
		Email:       in.Email,
		Password:    password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
		Role:        in.Role,
	}, in, ""
}

func selfService(role models.Role) bool {
	for _, opt := range SelfServiceRoles {
		if opt.Value == role {
			return true
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| helper: render the form with an error                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg string, in formInput) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Register", auth.LoginPath(r)),
		Error:  msg,
		Form:   in,
		Roles:  SelfServiceRoles,
	})
}
