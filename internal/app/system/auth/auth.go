package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/guard"
	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolhub/internal/app/system/session"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Session backends selectable through Config.Backend.
const (
	BackendCookie = "cookie"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config configures a SessionManager.
type Config struct {
	Key    string // cookie signing key, 32+ chars
	Name   string // cookie name
	Domain string // blank means current host
	Secure bool
	TTL    time.Duration

	// Backend is cookie (default), redis or memory.
	Backend string
	// Redis is required for the redis backend.
	Redis       redis.UniversalClient
	RedisPrefix string

	// LoginPath is where unauthenticated users are sent. Default /login.
	LoginPath string
}

// WrongPortalRenderer writes the page shown to a signed-in user who opened
// another role's portal. It must write a 403 status.
type WrongPortalRenderer func(w http.ResponseWriter, r *http.Request, res guard.Result, attempted models.Role)

// SessionManager owns the session cookie and applies the role guard.
type SessionManager struct {
	store     *sessions.CookieStore
	name      string
	loginPath string
	backend   string
	keyed     session.KeyedStore

	observers   []session.Observer
	wrongPortal WrongPortalRenderer
	log         *zap.Logger
}

// NewSessionManager validates cfg and builds the cookie store and the
// server-side session store, if any.
func NewSessionManager(cfg Config, logger *zap.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(cfg.Key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(cfg.Key)))
	}
	if cfg.Name == "" {
		cfg.Name = "schoolhub-session"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = guard.DefaultLoginPath
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendCookie
	}

	store := sessions.NewCookieStore([]byte(cfg.Key))
	opts := &sessions.Options{
		Domain:   cfg.Domain,
		Path:     "/",
		Secure:   cfg.Secure,
		HttpOnly: true,
	}
	// SameSite=None needs Secure; in local dev over http Lax is used.
	if cfg.Secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	if cfg.TTL > 0 {
		store.MaxAge(int(cfg.TTL / time.Second))
	}

	m := &SessionManager{
		store:     store,
		name:      cfg.Name,
		loginPath: cfg.LoginPath,
		backend:   cfg.Backend,
		log:       logger,
	}

	switch cfg.Backend {
	case BackendCookie:
	case BackendRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("session backend %q requires a redis client", cfg.Backend)
		}
		m.keyed = session.NewRedisStore(cfg.Redis, cfg.RedisPrefix, cfg.TTL)
	case BackendMemory:
		m.keyed = session.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}

	logger.Info("session manager initialized",
		zap.String("backend", cfg.Backend),
		zap.Bool("secure", cfg.Secure),
		zap.String("domain", cfg.Domain))

	return m, nil
}

// Subscribe registers observers for every repository this manager creates.
func (m *SessionManager) Subscribe(obs ...session.Observer) {
	m.observers = append(m.observers, obs...)
}

// SetWrongPortalRenderer sets the page used for WRONG_ROLE on HTML requests.
func (m *SessionManager) SetWrongPortalRenderer(fn WrongPortalRenderer) {
	m.wrongPortal = fn
}

// LoginPath returns the configured login path.
func (m *SessionManager) LoginPath() string { return m.loginPath }

// Backend returns the configured backend name.
func (m *SessionManager) Backend() string { return m.backend }

// Repository returns the session repository for this request.
func (m *SessionManager) Repository(w http.ResponseWriter, r *http.Request) *session.Repository {
	var b session.Backend
	if m.keyed == nil {
		b = session.NewCookieBackend(m.store, m.name, w, r)
	} else {
		b = &sidBackend{m: m, w: w, r: r}
	}
	return session.NewRepository(b, m.log,
		session.WithObservers(m.observers...),
		session.WithMeta(session.Meta{
			IP:        ratelimit.ClientIP(r),
			UserAgent: r.UserAgent(),
		}))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current session helpers                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const (
	sessionKey   ctxKey = "session"
	resultKey    ctxKey = "guardResult"
	loginPathKey ctxKey = "loginPath"
)

// LoginPath returns the login path recorded by LoadSessionUser, or the
// default when the request did not pass through it.
func LoginPath(r *http.Request) string {
	if p, ok := r.Context().Value(loginPathKey).(string); ok && p != "" {
		return p
	}
	return guard.DefaultLoginPath
}

// WithLoginPath records the login path on r. LoadSessionUser does this for
// every request; tests use it directly.
func WithLoginPath(r *http.Request, path string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), loginPathKey, path))
}

// CurrentSession returns the session loaded by LoadSessionUser.
func CurrentSession(r *http.Request) models.Session {
	s, _ := r.Context().Value(sessionKey).(models.Session)
	return s
}

// CurrentUser returns the signed-in user and whether there is one.
func CurrentUser(r *http.Request) (*models.UserRecord, bool) {
	s := CurrentSession(r)
	if !s.Authenticated() {
		return nil, false
	}
	return s.User, true
}

// GuardResult returns the result recorded by RequirePortal or
// RequireSignedIn for this request.
func GuardResult(r *http.Request) (guard.Result, bool) {
	res, ok := r.Context().Value(resultKey).(guard.Result)
	return res, ok
}

// WithTestUser attaches a signed-in session for u to r. Use in tests only.
func WithTestUser(r *http.Request, u *models.UserRecord) *http.Request {
	return withSession(r, models.Session{Token: "test-token", User: u})
}

// WithTestSession attaches s to r as the loaded session. Use in tests only.
func WithTestSession(r *http.Request, s models.Session) *http.Request {
	return withSession(r, s)
}

// LoadSessionUser reads the session on every request and stores the
// snapshot in the request context. Read failures count as signed out.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Repository(w, r).Get(r.Context())
		if err != nil {
			m.log.Warn("session read failed; continuing signed out",
				zap.Error(err),
				zap.String("path", r.URL.Path))
			sess = models.Session{}
		}
		next.ServeHTTP(w, withSession(WithLoginPath(r, m.loginPath), sess))
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Guards                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireSignedIn admits any signed-in user.
//   - HTMX: HX-Redirect to the login page and 401
//   - HTML: 303 redirect to the login page with ?redirect=
//   - API:  401 JSON
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return m.gate("", next)
}

// RequirePortal admits only users whose role owns the portal. Users of
// other roles get the wrong-portal page instead of a redirect.
func (m *SessionManager) RequirePortal(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.gate(role, next)
	}
}

func (m *SessionManager) gate(required models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := guard.Evaluate(guard.Input{
			Required:  required,
			Session:   CurrentSession(r),
			Path:      r.URL.Path,
			LoginPath: m.loginPath,
		})

		switch res.State {
		case guard.Authorized:
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resultKey, res)))
		case guard.WrongRole:
			m.log.Info("wrong portal",
				zap.String("user_id", res.User.ID),
				zap.String("role", string(res.WrongRole)),
				zap.String("attempted", string(required)))
			m.denyWrongRole(w, r, res, required)
		default:
			if res.ClearSession {
				if err := m.Repository(w, r).Clear(r.Context()); err != nil {
					m.log.Warn("clearing partial session failed", zap.Error(err))
				}
			}
			m.denyUnauthenticated(w, r, res)
		}
	})
}

func (m *SessionManager) denyUnauthenticated(w http.ResponseWriter, r *http.Request, res guard.Result) {
	// HTMX: full-page client redirect (no partial swap)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", res.RedirectTo)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, res.RedirectTo, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":    "unauthorized",
		"redirect": res.RedirectTo,
	})
}

func (m *SessionManager) denyWrongRole(w http.ResponseWriter, r *http.Request, res guard.Result, attempted models.Role) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", WrongPortalPath+"?attempted="+url.QueryEscape(string(attempted)))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if wantsHTML(r) {
		if m.wrongPortal != nil {
			m.wrongPortal(w, r, res, attempted)
			return
		}
		http.Error(w, "this portal belongs to another role", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusForbidden, map[string]string{
		"error":  "wrong_portal",
		"role":   string(res.WrongRole),
		"portal": portals.PathFor(res.WrongRole),
	})
}

// WrongPortalPath serves the interstitial for HTMX redirects.
const WrongPortalPath = "/wrong-portal"

// helpers

func withSession(r *http.Request, s models.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, s))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if isHTMX(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
