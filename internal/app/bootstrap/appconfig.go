// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds SchoolHub's own configuration. WAFFLE's CoreConfig
// covers the framework-level settings (ports, TLS, logging, env).
type AppConfig struct {
	// MongoDB holds the user directory and login records.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session storage
	SessionBackend string        // cookie | redis | memory
	SessionKey     string        // signs the session cookie
	SessionName    string        // cookie name
	SessionDomain  string        // blank means current host
	SessionTTL     time.Duration // cookie and server-side entry lifetime

	// Redis, used when SessionBackend is "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Identity provider
	IdentityBackend string // mongo | api
	AuthAPIURL      string // base URL of the upstream API when IdentityBackend is "api"
	JWTSecret       string // signs directory access tokens when IdentityBackend is "mongo"
	JWTTTL          time.Duration
	BcryptCost      int

	// Navigation
	LoginPath string

	// Login throttling
	LoginIPLimit    int
	LoginEmailLimit int

	// I/O deadlines
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}
