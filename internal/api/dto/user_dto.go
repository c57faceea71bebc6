package dto

import (
	"time"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/permission"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
	Grants    GrantsView   `json:"grants"`
}

// GrantsView exposes capability flags and the navigation they unlock.
type GrantsView struct {
	Capabilities map[permission.Capability]bool `json:"capabilities"`
	Navigation   map[string]bool                `json:"navigation"`
}

// NewGrantsView derives navigation visibility from grants.
func NewGrantsView(grants map[permission.Capability]bool) GrantsView {
	return GrantsView{
		Capabilities: grants,
		Navigation: map[string]bool{
			"dashboard": grants[permission.ViewDashboard],
			"tickets":   true,
			"clients":   grants[permission.ManageClients],
			"users":     grants[permission.ManageUsers],
		},
	}
}

// UserRequest creates or edits a user.
type UserRequest struct {
	Name       string            `json:"name" validate:"required"`
	Email      string            `json:"email" validate:"required,email"`
	Role       domain.Role       `json:"role" validate:"required"`
	Department string            `json:"department" validate:"required"`
	Status     domain.UserStatus `json:"status"`
}

// InvitationRequest creates an invitation.
type InvitationRequest struct {
	Name       string      `json:"name" validate:"required"`
	Email      string      `json:"email" validate:"required,email"`
	Role       domain.Role `json:"role" validate:"required"`
	Department string      `json:"department" validate:"required"`
	Mode       string      `json:"mode" validate:"omitempty,oneof=email manual_link"`
}

// InvitationResponse payload.
type InvitationResponse struct {
	User       UserResponse `json:"user"`
	InviteLink string       `json:"invite_link"`
	Mode       string       `json:"mode"`
	MessageID  string       `json:"message_id,omitempty"`
}

// ActivationRequest payload.
type ActivationRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ActivationResponse payload.
type ActivationResponse struct {
	User                UserResponse `json:"user"`
	ConfirmationPending bool         `json:"confirmation_pending"`
	Message             string       `json:"message"`
}

// UserResponse payload.
type UserResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Role       domain.Role       `json:"role"`
	Department string            `json:"department"`
	Status     domain.UserStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
