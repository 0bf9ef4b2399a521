// Package guard decides whether a session may enter a role-specific portal.
//
// Evaluate is a pure function of its Input. It is run again on every request,
// so a result always reflects the session as it is at that moment.
package guard

import (
	"net/url"

	"github.com/dalemusser/schoolhub/internal/domain/models"
)

// State is the guard's position in its state machine.
type State int

const (
	// Checking is the initial state; no decision has been made yet.
	Checking State = iota
	// Unauthenticated means there is no usable session.
	Unauthenticated
	// Authorized means the session may see the protected content.
	Authorized
	// WrongRole means the user is signed in but belongs to another portal.
	WrongRole
)

func (s State) String() string {
	switch s {
	case Checking:
		return "CHECKING"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case Authorized:
		return "AUTHORIZED"
	case WrongRole:
		return "WRONG_ROLE"
	}
	return "UNKNOWN"
}

// DefaultLoginPath is used when Input.LoginPath is empty.
const DefaultLoginPath = "/login"

// Input is everything one evaluation looks at.
type Input struct {
	// Required is the portal's role. Empty means any signed-in user.
	Required models.Role
	// Session is the current session snapshot.
	Session models.Session
	// Path is the path being requested; it becomes the redirect parameter.
	Path string
	// LoginPath is where unauthenticated users are sent.
	LoginPath string
}

// Result is the outcome of one evaluation.
type Result struct {
	State           State
	IsAuthenticated bool
	IsAuthorized    bool
	IsLoading       bool
	// WrongRole is the user's actual role when State is WrongRole.
	WrongRole models.Role
	User      *models.UserRecord
	// Role is the user's role when authenticated.
	Role models.Role
	// RedirectTo is set only for Unauthenticated.
	RedirectTo string
	// ClearSession asks the caller to erase a session that holds a token
	// but no readable user.
	ClearSession bool
}

// Initial returns the Checking result that exists before Evaluate runs.
func Initial() Result {
	return Result{State: Checking, IsLoading: true}
}

// Evaluate runs the check for in.
func Evaluate(in Input) Result {
	sess := in.Session

	if sess.Token == "" {
		return unauthenticated(in, false)
	}
	if sess.User == nil {
		return unauthenticated(in, true)
	}

	role := sess.User.Role
	res := Result{
		IsAuthenticated: true,
		User:            sess.User,
		Role:            role,
	}

	if in.Required == "" || role == in.Required {
		res.State = Authorized
		res.IsAuthorized = true
		return res
	}

	res.State = WrongRole
	res.WrongRole = role
	return res
}

func unauthenticated(in Input, clear bool) Result {
	return Result{
		State:        Unauthenticated,
		RedirectTo:   LoginRedirect(in.LoginPath, in.Path),
		ClearSession: clear,
	}
}

// LoginRedirect builds loginPath?redirect=<path>. An empty path omits the
// parameter.
func LoginRedirect(loginPath, path string) string {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if path == "" {
		return loginPath
	}
	return loginPath + "?redirect=" + url.QueryEscape(path)
}
