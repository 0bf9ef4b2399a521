package session

import (
	"context"

	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

// ChangeKind tells whether a session was established or cleared.
type ChangeKind int

const (
	Established ChangeKind = iota + 1
	Cleared
)

func (k ChangeKind) String() string {
	switch k {
	case Established:
		return "established"
	case Cleared:
		return "cleared"
	}
	return "unknown"
}

// Change is delivered to observers after a successful write or clear.
type Change struct {
	Kind ChangeKind
	User models.UserRecord
	Meta Meta
}

// Observer reacts to session changes. Implementations must not block for
// long; they run on the request goroutine.
type Observer interface {
	SessionChanged(ctx context.Context, c Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, c Change)

func (f ObserverFunc) SessionChanged(ctx context.Context, c Change) { f(ctx, c) }

// LogObserver logs every change at info level.
func LogObserver(logger *zap.Logger) Observer {
	return ObserverFunc(func(_ context.Context, c Change) {
		logger.Info("session "+c.Kind.String(),
			zap.String("user_id", c.User.ID),
			zap.String("role", string(c.User.Role)),
			zap.String("ip", c.Meta.IP))
	})
}
