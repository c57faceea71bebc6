package dto

import (
	"github.com/spec-kit/tecnochamados/internal/domain"
)

// TicketRequest creates or edits a ticket.
type TicketRequest struct {
	Client           string                `json:"client" validate:"required"`
	Subject          string                `json:"subject" validate:"required"`
	Category         string                `json:"category" validate:"required"`
	Technician       string                `json:"technician" validate:"required"`
	Status           domain.TicketStatus   `json:"status"`
	Date             string                `json:"date" validate:"required"`
	ReportedIssue    string                `json:"reported_issue"`
	ConfirmedIssue   string                `json:"confirmed_issue"`
	ServicePerformed string                `json:"service_performed"`
	Priority         domain.TicketPriority `json:"priority"`
	ArrivalTime      string                `json:"arrival_time"`
	DepartureTime    string                `json:"departure_time"`
}

// Ticket converts the request.
func (r TicketRequest) Ticket() domain.Ticket {
	return domain.Ticket{
		Client:           r.Client,
		Subject:          r.Subject,
		Category:         r.Category,
		Technician:       r.Technician,
		Status:           r.Status,
		Date:             r.Date,
		ReportedIssue:    r.ReportedIssue,
		ConfirmedIssue:   r.ConfirmedIssue,
		ServicePerformed: r.ServicePerformed,
		Priority:         r.Priority,
		ArrivalTime:      r.ArrivalTime,
		DepartureTime:    r.DepartureTime,
	}
}

// ClientRequest creates or edits a client.
type ClientRequest struct {
	Name          string `json:"name" validate:"required"`
	Unit          string `json:"unit" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state"`
	CEP           string `json:"cep"`
	ActiveTickets int    `json:"active_tickets" validate:"gte=0"`
}

// Client converts the request.
func (r ClientRequest) Client() domain.Client {
	return domain.Client{
		Name:          r.Name,
		Unit:          r.Unit,
		Phone:         r.Phone,
		Email:         r.Email,
		City:          r.City,
		State:         r.State,
		CEP:           r.CEP,
		ActiveTickets: r.ActiveTickets,
	}
}
