package domain

import "time"

// Client is a customer account.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	City          string    `json:"city"`
	State         string    `json:"state,omitempty"`
	CEP           string    `json:"cep,omitempty"`
	ActiveTickets int       `json:"active_tickets"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
