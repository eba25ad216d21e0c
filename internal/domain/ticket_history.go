package domain

import "time"

// Ticket fields that show up in history entries.
const (
	HistoryFieldStatus       = "status"
	HistoryFieldPriority     = "priority"
	HistoryFieldAssignedRole = "assignedToRole"
)

// TicketHistory is an immutable audit ledger entry recording a single
// field-level change. The ledger is append-only; rows are never rewritten.
type TicketHistory struct {
	ID        string
	TicketID  string
	Field     string
	OldValue  string
	NewValue  string
	UpdatedBy string
	CreatedAt time.Time
}
