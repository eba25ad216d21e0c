package dto

import (
	"time"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// CreateCommentRequest is the comment payload, also used for edits.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentAuthor is the denormalized author block on a comment.
type CommentAuthor struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// CommentResponse is the wire form of a comment.
type CommentResponse struct {
	ID        string        `json:"id"`
	TicketID  string        `json:"ticket_id"`
	Author    CommentAuthor `json:"author"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:       comment.ID,
		TicketID: comment.TicketID,
		Author: CommentAuthor{
			ID:   comment.AuthorID,
			Name: comment.AuthorName,
			Role: comment.AuthorRole,
		},
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// NewCommentResponses maps a slice of comments.
func NewCommentResponses(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}
