// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/portals"
	"github.com/dalemusser/waffle/pantry/httpnav"
)

// DefaultSiteName is shown in page titles and the header.
const DefaultSiteName = "SchoolHub"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	RoleLabel  string
	UserName   string
	PortalPath string // the signed-in user's own portal
	PortalName string
	LoginPath  string // where the sign-in links point

	// Page context
	Title       string
	BackURL     string
	CurrentPath string
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    DefaultSiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		LoginPath:   auth.LoginPath(r),
	}

	if u, ok := auth.CurrentUser(r); ok && u != nil {
		vm.IsLoggedIn = true
		vm.Role = string(u.Role)
		vm.RoleLabel = u.Role.Label()
		vm.UserName = u.FullName()
		if vm.UserName == "" {
			vm.UserName = u.Email
		}
		if p, ok := portals.For(u.Role); ok {
			vm.PortalPath = p.Path
			vm.PortalName = p.Name
		}
	}
	return vm
}
