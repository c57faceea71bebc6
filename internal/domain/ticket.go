package domain

import "time"

// TicketStatus enumerates the status labels of a ticket. Any status may
// move to any other.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pendente"
	TicketStatusInProgress TicketStatus = "Em Andamento"
	TicketStatusResolved   TicketStatus = "Resolvido"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusResolved}

// Valid reports whether the status is known.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Baixa"
	TicketPriorityMedium TicketPriority = "Média"
	TicketPriorityHigh   TicketPriority = "Alta"
	TicketPriorityUrgent TicketPriority = "Urgente"
)

// Valid reports whether the priority is known. Empty is accepted since the
// column is optional.
func (p TicketPriority) Valid() bool {
	switch p {
	case "", TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is a unit of support work. Client and Technician are names, not
// foreign keys.
type Ticket struct {
	ID               string         `json:"id"`
	Client           string         `json:"client"`
	Subject          string         `json:"subject"`
	Category         string         `json:"category"`
	Technician       string         `json:"technician"`
	Status           TicketStatus   `json:"status"`
	Date             string         `json:"date"`
	ReportedIssue    string         `json:"reported_issue,omitempty"`
	ConfirmedIssue   string         `json:"confirmed_issue,omitempty"`
	ServicePerformed string         `json:"service_performed,omitempty"`
	Priority         TicketPriority `json:"priority,omitempty"`
	ArrivalTime      string         `json:"arrival_time,omitempty"`
	DepartureTime    string         `json:"departure_time,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
