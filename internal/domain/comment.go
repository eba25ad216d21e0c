package domain

import "time"

// Comment is a remark on a ticket. The body is immutable in spirit; edits are
// restricted to the author or an administrator. AuthorName and AuthorRole are
// denormalized from the users table for display and realtime payloads.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName string
	AuthorRole Role
	Content    string
	CreatedAt  time.Time
}
