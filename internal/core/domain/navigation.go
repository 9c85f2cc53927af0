package domain

import "strings"

// Access describes who may open a route.
type Access int

const (
	// AccessProtected requires an authenticated identity.
	AccessProtected Access = iota
	// AccessPublicOnly is only for visitors without an identity (login).
	AccessPublicOnly
)

type Route struct {
	Name   string
	Path   string
	Icon   string
	Access Access
	// Roles restricts a protected route; empty means any authenticated role.
	Roles  []Role
	InMenu bool
}

// Permits is the single role predicate used for both menu visibility and
// route access.
func (r Route) Permits(role Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var bothRoles = []Role{RoleAdmin, RoleStaff}
var adminOnly = []Role{RoleAdmin}

// Routes is the ordered route table. Menu order follows table order.
var Routes = []Route{
	{Name: "Login", Path: LoginPath, Access: AccessPublicOnly},
	{Name: "Dashboard", Path: DashboardPath, Icon: "gauge", Roles: bothRoles, InMenu: true},
	{Name: "Packages", Path: "/packages", Icon: "boxes", Roles: bothRoles, InMenu: true},
	{Name: "Recipients", Path: "/recipients", Icon: "users", Roles: bothRoles, InMenu: true},
	{Name: "Staff Management", Path: "/staff", Icon: "users-cog", Roles: adminOnly, InMenu: true},
	{Name: "Locations", Path: "/locations", Icon: "building", Roles: adminOnly, InMenu: true},
	{Name: "Pricing", Path: "/prices", Icon: "money", Roles: adminOnly, InMenu: true},
	{Name: "Notification Settings", Path: "/notification-settings", Icon: "bell", Roles: adminOnly, InMenu: true},
	{Name: "Logout", Path: "/logout"},
}

// RouteFor resolves a request path to its table entry by longest path
// prefix on segment boundaries. Unknown paths are treated as protected
// routes without a role restriction.
func RouteFor(path string) Route {
	best := -1
	for i, r := range Routes {
		if path == r.Path || strings.HasPrefix(path, r.Path+"/") {
			if best < 0 || len(r.Path) > len(Routes[best].Path) {
				best = i
			}
		}
	}
	if best < 0 {
		return Route{Name: "Unknown", Path: path, Access: AccessProtected}
	}
	return Routes[best]
}
