// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// Param is the query/form parameter holding the return URL. Default "return".
	Param string

	// AllowedPrefix is the required URL prefix (e.g., "/admin").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedPrefixes are paths that must never be returned to
	// (e.g., "/login"), to prevent redirect loops.
	ExcludedPrefixes []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value, validates the URL is
// safe (not an open redirect), optionally validates the prefix, and rejects
// excluded prefixes.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	param := opts.Param
	if param == "" {
		param = "return"
	}

	// Try query parameter first, then form value
	ret := urlutil.SafeReturn(query.Get(r, param), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue(param)), "", "")
	}
	if !isLocalPath(ret) {
		return opts.Fallback
	}

	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return opts.Fallback
	}
	for _, excluded := range opts.ExcludedPrefixes {
		if ret == excluded || strings.HasPrefix(ret, excluded+"?") || strings.HasPrefix(ret, excluded+"/") {
			return opts.Fallback
		}
	}
	return ret
}

// isLocalPath accepts only same-origin absolute paths.
func isLocalPath(s string) bool {
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && !strings.HasPrefix(s, "/\\")
}

// LoginRedirect reads the "redirect" parameter set by the role guard. The
// login path itself is added by AfterLogin.
var LoginRedirect = BackURLOptions{
	Param:            "redirect",
	ExcludedPrefixes: []string{"/logout", "/register"},
}

// AfterLogin returns where a freshly signed-in user goes: the redirect they
// were bounced from, if safe, else their role's portal. Redirects back into
// loginPath are refused.
func AfterLogin(r *http.Request, role models.Role, loginPath string) string {
	if loginPath == "" {
		loginPath = portals.LoginURL
	}
	opts := LoginRedirect
	opts.ExcludedPrefixes = append([]string{loginPath}, LoginRedirect.ExcludedPrefixes...)
	opts.Fallback = portals.PathFor(role)
	return SafeBackURL(r, opts)
}
