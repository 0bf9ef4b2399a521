// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/schoolhub/internal/app/features/errors"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/authapi"
	"github.com/dalemusser/schoolhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"github.com/dalemusser/schoolhub/internal/app/system/navigation"
	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Messages shown on the login form.
const (
	msgMissingFields  = "Please enter your email and password."
	msgInvalid        = "Invalid email or password"
	msgDisabled       = "This account is not active yet. Please contact an administrator."
	msgServerError    = "Server error. Please try again later."
	msgUnavailable    = "Cannot connect to the sign-in service. Please try again later."
	msgSessionFailure = "Unable to create session. Please try again."
	msgRegistered     = "Registration successful. Please sign in."
)

type Handler struct {
	Provider   identity.Provider
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(
	provider identity.Provider,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Provider:   provider,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// loginPath is the path this handler is mounted at.
func (h *Handler) loginPath(r *http.Request) string {
	if h.SessionMgr != nil {
		return h.SessionMgr.LoginPath()
	}
	return auth.LoginPath(r)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error    string
	Notice   string
	Email    string
	Redirect string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin shows the sign-in form. A user who is already signed in goes
// straight on to the redirect target or their portal.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, navigation.AfterLogin(r, u.Role, h.loginPath(r)), http.StatusSeeOther)
		return
	}

	data := loginFormData{
		BaseVM:   viewdata.NewBaseVM(r, "Sign in", "/"),
		Redirect: query.Get(r, "redirect"),
	}
	if query.Get(r, "registered") != "" {
		data.Notice = msgRegistered
	}
	templates.Render(w, r, "login", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", h.loginPath(r))
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderFormWithError(w, r, msgMissingFields, email)
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("email", email),
				zap.String("ip", ratelimit.ClientIP(r)))
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderFormWithError(w, r, msg, email)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "identity login")
	defer cancel()

	token, user, res, err := identity.Authenticate(ctx, h.Provider, email, password)
	if err != nil {
		h.logFailure(email, err)
		h.renderFormWithError(w, r, h.failureMessage(err), email)
		return
	}
	if res.Defaulted {
		h.Log.Warn("user role could not be resolved; defaulting",
			zap.String("user_id", user.ID),
			zap.String("raw_role", res.Raw),
			zap.String("role", string(user.Role)))
	}

	if err := h.SessionMgr.Repository(w, r).Set(ctx, token, user); err != nil {
		h.Log.Error("session save failed", zap.Error(err), zap.String("user_id", user.ID))
		h.renderFormWithError(w, r, msgSessionFailure, email)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	h.Log.Info("user signed in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("role_source", res.Source.String()))

	dest := navigation.AfterLogin(r, user.Role, h.loginPath(r))
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// failureMessage turns an Authenticate error into text for the form.
// Upstream messages are shown only after stripping all markup.
func (h *Handler) failureMessage(err error) string {
	var apiErr *authapi.Error
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return msgInvalid
	case errors.Is(err, identity.ErrAccountDisabled):
		return msgDisabled
	case errors.Is(err, authapi.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return msgUnavailable
	case errors.As(err, &apiErr):
		if apiErr.Status >= http.StatusInternalServerError {
			return msgServerError
		}
		if msg := htmlsanitize.StripTags(apiErr.Message); msg != "" {
			return msg
		}
		return msgInvalid
	default:
		return msgServerError
	}
}

func (h *Handler) logFailure(email string, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrAccountDisabled):
		h.Log.Info("login rejected", zap.String("email", email), zap.Error(err))
	default:
		h.Log.Error("login failed", zap.String("email", email), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| helper: render the form with an error                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email string) {
	redirect := strings.TrimSpace(r.FormValue("redirect"))
	if redirect == "" {
		redirect = query.Get(r, "redirect")
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:   viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:    msg,
		Email:    email,
		Redirect: redirect,
	})
}
