// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Identity backends.
const (
	IdentityMongo = "mongo"
	IdentityAPI   = "api"
)

const (
	devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
	devJWTSecret  = "dev-only-jwt-secret-change-me-0123456789"
)

// appConfigKeys defines the configuration keys for SchoolHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SCHOOLHUB_MONGO_URI, SCHOOLHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "schoolhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_backend", Default: auth.BackendCookie, Desc: "Session storage: 'cookie', 'redis' or 'memory'"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "schoolhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "24h", Desc: "Session lifetime (e.g., 8h, 24h)"},

	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the redis session backend"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	{Name: "identity_backend", Default: IdentityMongo, Desc: "Who checks passwords: 'mongo' (local directory) or 'api' (upstream REST API)"},
	{Name: "auth_api_url", Default: "http://localhost:8080/api", Desc: "Upstream auth API base URL"},
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 secret for directory access tokens"},
	{Name: "jwt_ttl", Default: "1h", Desc: "Directory access token lifetime"},
	{Name: "bcrypt_cost", Default: bcrypt.DefaultCost, Desc: "bcrypt cost for directory passwords"},

	{Name: "login_path", Default: "/login", Desc: "Where unauthenticated users are sent"},
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts per IP per minute"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts per account per 5 minutes"},

	{Name: "timeout_ping", Default: "2s", Desc: "Health check deadline"},
	{Name: "timeout_short", Default: "5s", Desc: "Single-document operation deadline"},
	{Name: "timeout_medium", Default: "10s", Desc: "Identity provider call deadline"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, SCHOOLHUB_* for app) and
// command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SCHOOLHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionBackend: strings.ToLower(strings.TrimSpace(appValues.String("session_backend"))),
		SessionKey:     appValues.String("session_key"),
		SessionName:    appValues.String("session_name"),
		SessionDomain:  appValues.String("session_domain"),
		SessionTTL:     appValues.Duration("session_ttl", 24*time.Hour),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		IdentityBackend: strings.ToLower(strings.TrimSpace(appValues.String("identity_backend"))),
		AuthAPIURL:      appValues.String("auth_api_url"),
		JWTSecret:       appValues.String("jwt_secret"),
		JWTTTL:          appValues.Duration("jwt_ttl", tokens.DefaultTTL),
		BcryptCost:      appValues.Int("bcrypt_cost"),

		LoginPath:       appValues.String("login_path"),
		LoginIPLimit:    appValues.Int("login_ip_limit"),
		LoginEmailLimit: appValues.Int("login_email_limit"),

		TimeoutPing:   appValues.Duration("timeout_ping", 2*time.Second),
		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that cannot work, before any
// connection is attempted. Production additionally refuses the built-in
// development secrets.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	switch appCfg.SessionBackend {
	case auth.BackendCookie, auth.BackendMemory:
	case auth.BackendRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("session_backend %q requires redis_addr", appCfg.SessionBackend)
		}
	default:
		return fmt.Errorf("session_backend must be cookie, redis or memory (got %q)", appCfg.SessionBackend)
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}

	switch appCfg.IdentityBackend {
	case IdentityMongo:
		if appCfg.JWTSecret == "" {
			return fmt.Errorf("identity_backend %q requires jwt_secret", IdentityMongo)
		}
		if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
	case IdentityAPI:
		u, err := url.Parse(appCfg.AuthAPIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("identity_backend %q requires an http(s) auth_api_url (got %q)", IdentityAPI, appCfg.AuthAPIURL)
		}
	default:
		return fmt.Errorf("identity_backend must be mongo or api (got %q)", appCfg.IdentityBackend)
	}

	if err := validateLoginPath(appCfg.LoginPath); err != nil {
		return err
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			return fmt.Errorf("production requires a session_key of at least 32 characters that is not the default")
		}
		if appCfg.IdentityBackend == IdentityMongo && (appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < 32) {
			return fmt.Errorf("production requires a jwt_secret of at least 32 characters that is not the default")
		}
		if appCfg.SessionBackend == auth.BackendMemory {
			logger.Warn("memory session backend in production; sessions are lost on restart and not shared between instances")
		}
	}

	return nil
}

// reservedPaths are mounted by BuildHandler; login_path may not shadow them.
var reservedPaths = []string{
	"/register", "/logout", "/dashboard", "/health", "/static", "/api",
	"/forbidden", "/unauthorized", auth.WrongPortalPath,
	"/admin", "/teacher", "/student", "/enrollment-office",
}

// validateLoginPath accepts a local path such as /login or /auth/signin
// that does not collide with another mounted route.
func validateLoginPath(p string) error {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fmt.Errorf("login_path must be a local path (got %q)", p)
	}
	if p == "/" || strings.HasSuffix(p, "/") || strings.ContainsAny(p, "?#{}*") {
		return fmt.Errorf("login_path must be a plain path without a trailing slash (got %q)", p)
	}
	for _, reserved := range reservedPaths {
		if p == reserved || strings.HasPrefix(p, reserved+"/") {
			return fmt.Errorf("login_path %q collides with the %s routes", p, reserved)
		}
	}
	return nil
}
