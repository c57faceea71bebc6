package domain

import "time"

// Role enumerates the closed set of operator roles.
type Role string

const (
	RoleAdministrator Role = "Administrador"
	RoleManager       Role = "Gestor"
	RoleTechnician    Role = "Técnico"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleTechnician:
		return true
	}
	return false
}

// UserStatus represents lifecycle states for an operator.
type UserStatus string

const (
	UserStatusActive   UserStatus = "Ativo"
	UserStatusInactive UserStatus = "Inativo"
	UserStatusPending  UserStatus = "Pendente"
)

// Valid reports whether the status is one of the known labels.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusPending:
		return true
	}
	return false
}

// User is the identity and authorization record for an operator.
// A user created through an invitation stays Pending, with no account,
// until activation rebinds ID to the account id.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Department string     `json:"department"`
	Status     UserStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
