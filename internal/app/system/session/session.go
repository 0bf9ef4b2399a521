// Package session persists the per-browser login session: an opaque access
// token and the normalized user it belongs to.
//
// The two entries are always written and removed together. A Repository
// never hands out a token without a user (or the reverse); if a backend
// holds such a pair, for instance after a clear that failed halfway, the
// next Get treats the session as signed out and erases what is left.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

// Storage keys for the two session entries.
const (
	TokenKey = "accessToken"
	UserKey  = "user"
)

var (
	// ErrInconsistent reports stored entries that do not form a valid session.
	ErrInconsistent = errors.New("session: inconsistent entries")
	// ErrEmptyToken is returned by Set when no token is given.
	ErrEmptyToken = errors.New("session: empty token")
	// ErrInvalidRole is returned by Set for a user whose role is not canonical.
	ErrInvalidRole = errors.New("session: user role is not canonical")
)

// Entries is the raw stored form of a session. User holds a JSON-encoded
// models.UserRecord.
type Entries struct {
	Token string
	User  string
}

// Empty reports whether neither entry is set.
func (e Entries) Empty() bool { return e.Token == "" && e.User == "" }

// Backend stores the entries of a single session.
// Write and Erase must affect both entries in one operation.
type Backend interface {
	Read(ctx context.Context) (Entries, error)
	Write(ctx context.Context, e Entries) error
	Erase(ctx context.Context) error
}

// Meta describes the client a repository serves. It is attached to change
// notifications.
type Meta struct {
	IP        string
	UserAgent string
}

// Repository is the read/write API over one session's Backend.
type Repository struct {
	backend   Backend
	meta      Meta
	observers []Observer
	log       *zap.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithMeta attaches client metadata passed along to observers.
func WithMeta(m Meta) Option {
	return func(r *Repository) { r.meta = m }
}

// WithObservers registers observers notified after successful Set/Clear.
func WithObservers(obs ...Observer) Option {
	return func(r *Repository) { r.observers = append(r.observers, obs...) }
}

// NewRepository wraps backend. A nil logger is replaced by a no-op logger.
func NewRepository(backend Backend, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{backend: backend, log: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the current session. An inconsistent session is erased and
// reported as empty; only backend failures are returned as errors.
func (r *Repository) Get(ctx context.Context) (models.Session, error) {
	e, err := r.backend.Read(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("read session: %w", err)
	}

	sess, err := decode(e)
	if err != nil {
		r.log.Warn("clearing inconsistent session",
			zap.Error(err),
			zap.Bool("has_token", e.Token != ""),
			zap.Bool("has_user", e.User != ""))
		if eraseErr := r.backend.Erase(ctx); eraseErr != nil {
			r.log.Error("erase inconsistent session failed", zap.Error(eraseErr))
		}
		return models.Session{}, nil
	}
	return sess, nil
}

// Set stores token and user together, replacing any previous session.
func (r *Repository) Set(ctx context.Context, token string, u models.UserRecord) error {
	if token == "" {
		return ErrEmptyToken
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}

	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := r.backend.Write(ctx, Entries{Token: token, User: string(b)}); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	r.notify(ctx, Change{Kind: Established, User: u, Meta: r.meta})
	return nil
}

// Clear removes both entries.
func (r *Repository) Clear(ctx context.Context) error {
	var prev *models.UserRecord
	if e, err := r.backend.Read(ctx); err == nil {
		if sess, err := decode(e); err == nil {
			prev = sess.User
		}
	}

	if err := r.backend.Erase(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if prev != nil {
		r.notify(ctx, Change{Kind: Cleared, User: *prev, Meta: r.meta})
	}
	return nil
}

func (r *Repository) notify(ctx context.Context, c Change) {
	for _, o := range r.observers {
		o.SessionChanged(ctx, c)
	}
}

func decode(e Entries) (models.Session, error) {
	if e.Empty() {
		return models.Session{}, nil
	}
	if e.Token == "" {
		return models.Session{}, fmt.Errorf("%w: user without token", ErrInconsistent)
	}
	if e.User == "" {
		return models.Session{}, fmt.Errorf("%w: token without user", ErrInconsistent)
	}

	var u models.UserRecord
	if err := json.Unmarshal([]byte(e.User), &u); err != nil {
		return models.Session{}, fmt.Errorf("%w: decode user: %v", ErrInconsistent, err)
	}
	if !u.Role.Valid() {
		return models.Session{}, fmt.Errorf("%w: stored role %q", ErrInconsistent, u.Role)
	}
	return models.Session{Token: e.Token, User: &u}, nil
}
