package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// Valid reports whether the status is one of the three lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityNormal   TicketPriority = "NORMAL"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Valid reports whether the priority is one of the four levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketCategory enumerates the author-supplied classification.
type TicketCategory string

const (
	CategoryHardware TicketCategory = "Hardware"
	CategorySoftware TicketCategory = "Software"
	CategoryNetwork  TicketCategory = "Network"
	CategoryAccount  TicketCategory = "Account"
	CategoryOther    TicketCategory = "Other"
)

// Valid reports whether the category is a known value.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategoryAccount, CategoryOther:
		return true
	}
	return false
}

// AssignedRole is the support tier a ticket is routed to.
type AssignedRole string

const (
	AssignedUnassigned AssignedRole = "UNASSIGNED"
	AssignedFirstLine  AssignedRole = "FIRST_LINE"
	AssignedSecondLine AssignedRole = "SECOND_LINE"
)

// Assignable reports whether the value is a tier tickets may be assigned to.
// The unassigned sentinel is not a valid assignment target.
func (a AssignedRole) Assignable() bool {
	return a == AssignedFirstLine || a == AssignedSecondLine
}

// Matches reports whether an actor role corresponds to the assigned tier.
func (a AssignedRole) Matches(role Role) bool {
	switch a {
	case AssignedFirstLine:
		return role == RoleFirstLine
	case AssignedSecondLine:
		return role == RoleSecondLine
	}
	return false
}

// Feedback is the one-time post-resolution rating on a ticket.
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Ticket is the aggregate for support requests. Revision is bumped on every
// write and checked on update so concurrent writers fail fast instead of
// silently overwriting each other.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Category     TicketCategory
	Status       TicketStatus
	Priority     TicketPriority
	AssignedRole AssignedRole
	CreatedBy    string
	CompanyID    *string
	Feedback     *Feedback
	Revision     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
