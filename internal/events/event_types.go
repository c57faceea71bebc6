package events

import (
	"time"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserInvited          EventType = "user_invited"
	EventUserActivated        EventType = "user_activated"
	EventActivationIncomplete EventType = "user_activation_incomplete"
	EventTicketCreated        EventType = "ticket_created"
	EventTicketUpdated        EventType = "ticket_updated"
	EventTicketDeleted        EventType = "ticket_deleted"
)

// Actor identifies the operator behind an event. It is empty for
// activations, which are performed by the invitee.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorOf builds the actor for user.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserInvitedPayload payload.
type UserInvitedPayload struct {
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department"`
	Mode       string      `json:"mode"`
	Delivered  bool        `json:"delivered"`
}

// UserActivatedPayload payload.
type UserActivatedPayload struct {
	Email     string `json:"email"`
	AccountID string `json:"account_id"`
}

// TicketChangedPayload payload.
type TicketChangedPayload struct {
	Client     string              `json:"client"`
	Technician string              `json:"technician"`
	OldStatus  domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus  domain.TicketStatus `json:"new_status,omitempty"`
}
