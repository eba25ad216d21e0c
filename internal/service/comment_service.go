package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/events"
	"github.com/nordicdesk/helpdesk/internal/policy"
	"github.com/nordicdesk/helpdesk/internal/repository"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// CommentService manages the remark thread on a ticket and fans new comments
// out to the ticket's room.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Add appends a comment to a ticket, touches the ticket's updated-at, and
// publishes a new_comment event with author name and role for display.
func (s *CommentService) Add(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("please add comment content")
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionWriteComment, policy.Input{Ticket: ticket}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.Role,
		Content:    strings.TrimSpace(content),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.tickets.Touch(ctx, ticket.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventNewComment,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			Timestamp: time.Now(),
			Payload:   events.NewCommentPayload{Comment: comment},
		})
	}
	return comment, nil
}

// List returns a ticket's comments in ascending creation order.
func (s *CommentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionReadComments, policy.Input{Ticket: ticket}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// Update edits a comment's content. Author or admin only.
func (s *CommentService) Update(ctx context.Context, actor *domain.User, commentID, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("please add comment content")
	}
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionModifyComment, policy.Input{CommentAuthorID: comment.AuthorID}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	comment.Content = strings.TrimSpace(content)
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// Delete removes a comment. Author or admin only.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, commentID string) error {
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if d := policy.Decide(actor, policy.ActionModifyComment, policy.Input{CommentAuthorID: comment.AuthorID}); !d.Allowed {
		return apperrors.NewForbidden(d.Reason)
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *CommentService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("no ticket found with that id")
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *CommentService) loadComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("no comment found with that id")
		}
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}
