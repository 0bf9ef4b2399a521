// Package identity defines the contract with whatever authenticates users:
// the upstream REST API or the local MongoDB directory.
package identity

import (
	"context"
	"errors"

	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"github.com/dalemusser/schoolhub/internal/domain/models"
)

var (
	// ErrInvalidCredentials means the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled means the account exists but may not sign in.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrDuplicateEmail means registration found an existing account.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrInvalidToken means an access token is malformed, expired or unknown.
	ErrInvalidToken = errors.New("invalid access token")
)

// Registration is the input to Provider.Register.
type Registration struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	PhoneNumber string      `json:"phoneNumber,omitempty"`
	Address     string      `json:"address,omitempty"`
	Role        models.Role `json:"role"`
}

// Provider authenticates users and describes them. User payloads are
// returned raw; callers pass them through normalize.User.
type Provider interface {
	// Login exchanges credentials for an opaque access token.
	Login(ctx context.Context, email, password string) (string, error)
	// Me returns the user the token belongs to.
	Me(ctx context.Context, token string) (normalize.RawUser, error)
	// Register creates an account.
	Register(ctx context.Context, reg Registration) (normalize.RawUser, error)
}

// Authenticate runs the full sign-in sequence against p: login, fetch the
// user, normalize it and reject disabled accounts. The Resolution tells the
// caller how the role was obtained.
func Authenticate(ctx context.Context, p Provider, email, password string) (string, models.UserRecord, normalize.Resolution, error) {
	token, err := p.Login(ctx, normalize.Email(email), password)
	if err != nil {
		return "", models.UserRecord{}, normalize.Resolution{}, err
	}

	raw, err := p.Me(ctx, token)
	if err != nil {
		return "", models.UserRecord{}, normalize.Resolution{}, err
	}

	u, res := normalize.Resolve(raw)
	if !u.Enabled {
		return "", models.UserRecord{}, res, ErrAccountDisabled
	}
	return token, u, res, nil
}
