package login

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/schoolhub/internal/app/system/authapi"
	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"go.uber.org/zap"
)

func TestFailureMessage(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, zap.NewNop())

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid credentials", identity.ErrInvalidCredentials, msgInvalid},
		{"disabled", fmt.Errorf("login: %w", identity.ErrAccountDisabled), msgDisabled},
		{"unreachable", fmt.Errorf("%w: POST /auth/login: refused", authapi.ErrUnavailable), msgUnavailable},
		{"deadline", context.DeadlineExceeded, msgUnavailable},
		{"server error", &authapi.Error{Status: 500, Message: "stack trace"}, msgServerError},
		{"upstream message is sanitized", &authapi.Error{Status: 400, Message: "<b>Email</b> not verified<script>x()</script>"}, "Email not verified"},
		{"empty upstream message", &authapi.Error{Status: 400}, msgInvalid},
		{"unknown", errors.New("boom"), msgServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.failureMessage(tt.err); got != tt.want {
				t.Errorf("failureMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
