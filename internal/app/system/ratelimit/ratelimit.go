// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now. Tests use it to move windows forward.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a limiter allowing limit requests per duration for each key.
// A sweeper goroutine drops expired windows until Stop is called.
func New(limit int, duration time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.sweep(duration * 2)
	return l
}

// Allow records one request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining reports how many requests key may still make in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
}

// Stop ends the sweeper goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Messages shown on the login form when an attempt is refused.
const (
	MsgTooManyFromIP     = "Too many login attempts. Please wait a minute before trying again."
	MsgTooManyForAccount = "Too many login attempts for this account. Please wait a few minutes."
)

// LoginConfig sets the per-IP and per-account budgets for sign-in attempts.
type LoginConfig struct {
	IPLimit     int
	IPWindow    time.Duration
	EmailLimit  int
	EmailWindow time.Duration
}

// DefaultLoginConfig allows 10 attempts per IP per minute and 5 per
// account per 5 minutes.
func DefaultLoginConfig() LoginConfig {
	return LoginConfig{
		IPLimit:     10,
		IPWindow:    time.Minute,
		EmailLimit:  5,
		EmailWindow: 5 * time.Minute,
	}
}

// LoginLimiter guards POST /login by client IP and by account email.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter builds a LoginLimiter. Non-positive fields fall back to
// DefaultLoginConfig.
func NewLoginLimiter(cfg LoginConfig, opts ...Option) *LoginLimiter {
	def := DefaultLoginConfig()
	if cfg.IPLimit <= 0 {
		cfg.IPLimit = def.IPLimit
	}
	if cfg.IPWindow <= 0 {
		cfg.IPWindow = def.IPWindow
	}
	if cfg.EmailLimit <= 0 {
		cfg.EmailLimit = def.EmailLimit
	}
	if cfg.EmailWindow <= 0 {
		cfg.EmailWindow = def.EmailWindow
	}
	return &LoginLimiter{
		ip:    New(cfg.IPLimit, cfg.IPWindow, opts...),
		email: New(cfg.EmailLimit, cfg.EmailWindow, opts...),
	}
}

// Check counts one attempt. When refused, the returned message is suitable
// for the login form.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, MsgTooManyFromIP
	}
	if key := emailKey(email); key != "" && !ll.email.Allow(key) {
		return false, MsgTooManyForAccount
	}
	return true, ""
}

// ResetEmail clears the account budget after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.email.Reset(key)
	}
}

// Stop ends both sweepers.
func (ll *LoginLimiter) Stop() {
	ll.ip.Stop()
	ll.email.Stop()
}

func emailKey(email string) string {
	return text.Fold(strings.TrimSpace(email))
}
