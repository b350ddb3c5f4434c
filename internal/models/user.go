package models

import "time"

// User represents a user account in the system.
type User struct {
	ID               int64      `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	PasswordHash     string     `json:"-"` // Never expose this to the client
	IsAdmin          bool       `json:"isAdmin"`
	ResetTokenHash   string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Sanitized returns a copy without any secret material.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = nil
	return u
}
