package domain

import "time"

// AccountMetadata is the profile copied from an invitation onto the
// credential record.
type AccountMetadata struct {
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
}

// Account is a credentialed login. Its ID becomes the ID of the matching
// user row once activation completes.
type Account struct {
	ID                  string
	Email               string
	PasswordHash        string
	Metadata            AccountMetadata
	EmailConfirmed      bool
	NeedsReconciliation bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
