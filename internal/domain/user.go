package domain

import "time"

// User is the domain model for every account: end-users who submit tickets,
// support staff, and administrators. The Role field decides what they may do.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CompanyID    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
