package events

import (
	"time"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketAssigned EventType = "ticket_assigned"
	EventNewComment     EventType = "new_comment"
)

// Event represents a domain event emitted by services. TicketID doubles as
// the room key for the realtime fan-out.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketUpdatedPayload carries the ticket snapshot after a mutation.
type TicketUpdatedPayload struct {
	Ticket *domain.Ticket `json:"ticket"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedRole domain.AssignedRole `json:"assigned_role"`
}

// NewCommentPayload carries the comment with author name and role
// denormalized for display.
type NewCommentPayload struct {
	Comment *domain.Comment `json:"comment"`
}
