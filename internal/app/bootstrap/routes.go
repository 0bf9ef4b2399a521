// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	accountsfeature "github.com/dalemusser/schoolhub/internal/app/features/accounts"
	dashboardfeature "github.com/dalemusser/schoolhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/schoolhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/schoolhub/internal/app/features/health"
	homefeature "github.com/dalemusser/schoolhub/internal/app/features/home"
	loginfeature "github.com/dalemusser/schoolhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/schoolhub/internal/app/features/logout"
	registerfeature "github.com/dalemusser/schoolhub/internal/app/features/register"
	userinfofeature "github.com/dalemusser/schoolhub/internal/app/features/userinfo"
	loginstore "github.com/dalemusser/schoolhub/internal/app/store/logins"
	userstore "github.com/dalemusser/schoolhub/internal/app/store/users"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/authapi"
	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/dalemusser/schoolhub/internal/app/system/tokens"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// portalMounts lists where each role's portal router is mounted. The
// prefixes match the paths in the portals package.
var portalMounts = []struct {
	prefix string
	role   models.Role
}{
	{"/student", models.RoleStudent},
	{"/teacher", models.RoleTeacher},
	{"/enrollment-office", models.RoleEnrollmentOffice},
	{"/admin", models.RoleAdmin},
}

var (
	limiterMu    sync.Mutex
	loginLimiter *ratelimit.LoginLimiter
)

// stopLoginLimiter stops the sweeper of the limiter built by BuildHandler.
func stopLoginLimiter() {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	if loginLimiter != nil {
		loginLimiter.Stop()
		loginLimiter = nil
	}
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. SchoolHub builds the session manager
// on the configured backend, picks the identity provider, boots the
// template engine and mounts the public pages, the sign-in flow and one
// guarded router per portal.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(auth.Config{
		Key:         appCfg.SessionKey,
		Name:        appCfg.SessionName,
		Domain:      appCfg.SessionDomain,
		Secure:      secure,
		TTL:         appCfg.SessionTTL,
		Backend:     appCfg.SessionBackend,
		Redis:       deps.Redis,
		RedisPrefix: "schoolhub:session:",
		LoginPath:   appCfg.LoginPath,
	}, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Sign-ins and sign-outs are recorded for the dashboards and logged.
	loginStore := loginstore.New(deps.SchoolHubMongoDatabase, logger)
	sessionMgr.Subscribe(loginStore, session.LogObserver(logger))
	sessionMgr.SetWrongPortalRenderer(errorsfeature.RenderWrongPortal)

	provider, directory, err := buildIdentity(appCfg, deps, logger)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewLoginLimiter(ratelimit.LoginConfig{
		IPLimit:     appCfg.LoginIPLimit,
		IPWindow:    time.Minute,
		EmailLimit:  appCfg.LoginEmailLimit,
		EmailWindow: 5 * time.Minute,
	})
	stopLoginLimiter()
	limiterMu.Lock()
	loginLimiter = limiter
	limiterMu.Unlock()

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the session into the request context.
	// Handlers read it with auth.CurrentUser(r) and auth.CurrentSession(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	checks := []healthfeature.Check{healthfeature.MongoCheck("mongo", deps.SchoolHubMongoClient)}
	if deps.Redis != nil {
		checks = append(checks, healthfeature.RedisCheck("redis", deps.Redis))
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(logger, checks...)))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	r.Mount("/", homefeature.Routes(homefeature.NewHandler(logger)))

	// Authentication
	mountSignIn(r, loginfeature.NewHandler(provider, sessionMgr, limiter, errLog, logger))
	r.Mount("/register", registerfeature.Routes(registerfeature.NewHandler(provider, errLog, logger)))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, logger)))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.Get(auth.WrongPortalPath, errorsHandler.WrongPortal)

	// Portals: /dashboard forwards to the caller's own portal.
	dashboardHandler := dashboardfeature.NewHandler(loginStore, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))
	for _, pm := range portalMounts {
		r.Mount(pm.prefix, dashboardfeature.PortalRoutes(dashboardHandler, sessionMgr, pm.role))
	}

	// Admin approval queue for staff registrations
	var accountsDir accountsfeature.Directory
	if directory != nil {
		accountsDir = directory
	}
	r.Mount("/admin/accounts", accountsfeature.Routes(accountsfeature.NewHandler(accountsDir, errLog, logger), sessionMgr))

	// JSON: the signed-in user
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(), sessionMgr)

	return r, nil
}

// mountSignIn mounts the sign-in form at the session manager's login path,
// the same path the guards redirect to.
func mountSignIn(r chi.Router, h *loginfeature.Handler) {
	r.Mount(h.SessionMgr.LoginPath(), loginfeature.Routes(h))
}

// buildIdentity returns the configured identity provider. The directory is
// non-nil only for the mongo backend.
func buildIdentity(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (identity.Provider, *userstore.Store, error) {
	switch appCfg.IdentityBackend {
	case IdentityMongo:
		dir := userstore.New(deps.SchoolHubMongoDatabase, tokens.NewManager(appCfg.JWTSecret, appCfg.JWTTTL), appCfg.BcryptCost)
		logger.Info("identity provider: local directory")
		return dir, dir, nil
	case IdentityAPI:
		logger.Info("identity provider: upstream API", zap.String("url", appCfg.AuthAPIURL))
		return authapi.New(appCfg.AuthAPIURL, nil, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown identity backend %q", appCfg.IdentityBackend)
	}
}
