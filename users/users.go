package users

import "time"

// RoleName represents a user role as reported by the backend
type RoleName string

const (
	RoleAdmin RoleName = "ADMIN"
	RoleAgent RoleName = "AGENT"
)

// Role is the role reference embedded in user payloads
type Role struct {
	ID   string   `json:"id"`
	Name RoleName `json:"name,omitempty"`
}

// Status is the account status reference embedded in user payloads
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type User struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	Email              string     `json:"email"`
	Mobile             *string    `json:"mobile,omitempty"`
	RegistrationType   *string    `json:"registrationType,omitempty"`
	PrimaryLicenseType *string    `json:"primaryLicenseType,omitempty"`
	ResidentState      *string    `json:"residentState,omitempty"`
	LicenseNumber      *string    `json:"licenseNumber,omitempty"`
	YearsLicensed      *int       `json:"yearsLicensed,omitempty"`
	PriorProductsSold  *string    `json:"priorProductsSold,omitempty"`
	CurrentCompany     *string    `json:"currentCompany,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	Role               Role       `json:"role"`
	Status             Status     `json:"status"`
	IsApproved         bool       `json:"isApproved"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin
}

// Routes gated by role. Admin-only routes live under /admin; everything
// else is available to any authenticated user.
const (
	RouteDashboard   = "/dashboard"
	RoutePipeline    = "/pipeline"
	RouteContacts    = "/contacts"
	RouteSettings    = "/settings"
	RouteProfile     = "/profile"
	RouteAdminAgents = "/admin/agents"
	RouteAdminUsers  = "/admin/users"
)

var adminRoutes = map[string]bool{
	RouteAdminAgents: true,
	RouteAdminUsers:  true,
}

// CanAccess reports whether the user may navigate to the given route. A nil
// user can access nothing.
func CanAccess(u *User, route string) bool {
	if u == nil {
		return false
	}
	if adminRoutes[route] {
		return u.IsAdmin()
	}
	return true
}

// NavigationRoutes returns the routes visible to the user, in menu order.
func NavigationRoutes(u *User) []string {
	all := []string{
		RouteDashboard,
		RoutePipeline,
		RouteContacts,
		RouteAdminAgents,
		RouteAdminUsers,
		RouteSettings,
		RouteProfile,
	}
	routes := make([]string, 0, len(all))
	for _, r := range all {
		if CanAccess(u, r) {
			routes = append(routes, r)
		}
	}
	return routes
}
