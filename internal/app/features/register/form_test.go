package register

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestParseForm_Messages(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	base := func() url.Values {
		return url.Values{
			"email": {"a@school.test"}, "firstName": {"A"}, "lastName": {"B"},
			"role": {"TEACHER"}, "password": {"secret1"}, "confirmPassword": {"secret1"},
		}
	}

	tests := []struct {
		name   string
		mutate func(url.Values)
		want   string
	}{
		{"valid", func(url.Values) {}, ""},
		{"mismatch", func(f url.Values) { f.Set("confirmPassword", "x") }, msgPasswordMatch},
		{"short", func(f url.Values) { f.Set("password", "12345"); f.Set("confirmPassword", "12345") }, msgPasswordShort},
		{"at byte limit", func(f url.Values) {
			pw := strings.Repeat("a", MaxPasswordLength)
			f.Set("password", pw)
			f.Set("confirmPassword", pw)
		}, ""},
		{"over byte limit", func(f url.Values) {
			pw := strings.Repeat("a", MaxPasswordLength+1)
			f.Set("password", pw)
			f.Set("confirmPassword", pw)
		}, msgPasswordLong},
		{"multibyte over byte limit", func(f url.Values) {
			pw := strings.Repeat("é", 37) // 74 bytes, 37 characters
			f.Set("password", pw)
			f.Set("confirmPassword", pw)
		}, msgPasswordLong},
		{"admin", func(f url.Values) { f.Set("role", "ROLE_ADMIN") }, msgBadRole},
		{"missing last name", func(f url.Values) { f.Del("lastName") }, msgRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(f)
			r := httptest.NewRequest("POST", "/register", strings.NewReader(f.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if _, _, got := h.parseForm(r); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}
