package domain

import "time"

// Session identifies one logged-in holder. The user snapshot itself lives
// in the session store under ID.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
