package dto

import (
	"time"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// CreateTicketRequest is the ticket creation payload. Status is never client
// supplied; new tickets always open as OPEN.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest is the ticket patch. Absent fields stay untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

// AssignRoleRequest routes a ticket to a support tier.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// UpdatePriorityRequest changes the urgency level.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// FeedbackRequest is the post-resolution rating payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// FeedbackResponse is the stored rating on a resolved ticket.
type FeedbackResponse struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedRole domain.AssignedRole   `json:"assigned_to_role"`
	CreatedBy    string                `json:"created_by"`
	CompanyID    *string               `json:"company_id,omitempty"`
	Feedback     *FeedbackResponse     `json:"feedback,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse is a ticket together with its audit ledger.
type TicketDetailResponse struct {
	TicketResponse
	History []HistoryResponse `json:"history"`
}

// HistoryResponse is one ledger row.
type HistoryResponse struct {
	ID        string    `json:"id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Category:     ticket.Category,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		AssignedRole: ticket.AssignedRole,
		CreatedBy:    ticket.CreatedBy,
		CompanyID:    ticket.CompanyID,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
	if ticket.Feedback != nil {
		resp.Feedback = &FeedbackResponse{
			Rating:      ticket.Feedback.Rating,
			Comment:     ticket.Feedback.Comment,
			SubmittedAt: ticket.Feedback.SubmittedAt,
		}
	}
	return resp
}

// NewTicketResponses maps a slice of domain tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewHistoryResponses maps ledger rows.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryResponse{
			ID:        entry.ID,
			Field:     entry.Field,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			UpdatedBy: entry.UpdatedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}
