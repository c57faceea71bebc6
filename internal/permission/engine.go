// Package permission maps an operator's role to the capabilities it grants.
// Authorization is role-global: no capability is scoped to a resource.
package permission

import "github.com/spec-kit/tecnochamados/internal/domain"

// Capability names a permission checked against a role.
type Capability string

const (
	ViewTickets   Capability = "view_tickets"
	EditTickets   Capability = "edit_tickets"
	DeleteTickets Capability = "delete_tickets"
	ManageClients Capability = "manage_clients"
	ManageUsers   Capability = "manage_users"
	CreateAdmin   Capability = "create_admin"
	DeleteAdmin   Capability = "delete_admin"
	ViewDashboard Capability = "view_dashboard"
)

// Capabilities lists every known capability.
var Capabilities = []Capability{
	ViewTickets,
	EditTickets,
	DeleteTickets,
	ManageClients,
	ManageUsers,
	CreateAdmin,
	DeleteAdmin,
	ViewDashboard,
}

// Known reports whether c is a member of the capability set.
func (c Capability) Known() bool {
	for _, known := range Capabilities {
		if c == known {
			return true
		}
	}
	return false
}

// Engine evaluates the role table. The zero value is ready to use.
type Engine struct{}

// NewEngine returns an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Can reports whether user holds capability c. A nil user, an unknown role
// or an unknown capability is denied.
func (e *Engine) Can(user *domain.User, c Capability) bool {
	if user == nil || !c.Known() {
		return false
	}

	switch user.Role {
	case domain.RoleAdministrator:
		return true
	case domain.RoleManager:
		return c != CreateAdmin && c != DeleteAdmin
	case domain.RoleTechnician:
		return c == ViewTickets || c == EditTickets
	default:
		return false
	}
}

// HasPermission is the string entry point used by callers holding a raw
// capability name.
func (e *Engine) HasPermission(user *domain.User, name string) bool {
	return e.Can(user, Capability(name))
}

func (e *Engine) CanManageUsers(user *domain.User) bool   { return e.Can(user, ManageUsers) }
func (e *Engine) CanCreateAdmin(user *domain.User) bool   { return e.Can(user, CreateAdmin) }
func (e *Engine) CanDeleteAdmin(user *domain.User) bool   { return e.Can(user, DeleteAdmin) }
func (e *Engine) CanEditTickets(user *domain.User) bool   { return e.Can(user, EditTickets) }
func (e *Engine) CanDeleteTickets(user *domain.User) bool { return e.Can(user, DeleteTickets) }
func (e *Engine) CanManageClients(user *domain.User) bool { return e.Can(user, ManageClients) }

// Grants returns the capability flags for user, keyed by capability name.
func (e *Engine) Grants(user *domain.User) map[Capability]bool {
	grants := make(map[Capability]bool, len(Capabilities))
	for _, c := range Capabilities {
		grants[c] = e.Can(user, c)
	}
	return grants
}
