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

// TicketService coordinates the ticket lifecycle: creation, gated mutation,
// the audit ledger, assignment, feedback, and deletion.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketPatch carries the fields a ticket update may change. Nil means
// "leave untouched".
type TicketPatch struct {
	Title       *string
	Description *string
	Category    *domain.TicketCategory
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
}

// TicketListInput describes listing parameters.
type TicketListInput struct {
	Sort  string
	Page  int
	Limit int
}

// Create opens a new ticket for the actor. Status is forced to OPEN and the
// company is denormalized from the creator's record.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	var missing []string
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "please add a title")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "please add a description")
	}
	if !input.Category.Valid() {
		missing = append(missing, "please select a valid category")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(strings.Join(missing, ", "))
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("please provide a valid priority")
	}

	ticket := &domain.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Category:     input.Category,
		Status:       domain.TicketStatusOpen,
		Priority:     priority,
		AssignedRole: domain.AssignedUnassigned,
		CreatedBy:    actor.ID,
		CompanyID:    actor.CompanyID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketUpdatedPayload{Ticket: ticket},
	})
	return ticket, nil
}

// Get returns a single ticket after the read gate.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionReadTicket, policy.Input{Ticket: ticket}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	return ticket, nil
}

// History returns the ticket's audit ledger, oldest first.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionReadTicket, policy.Input{Ticket: ticket}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	return s.history.ListByTicket(ctx, ticketID)
}

// List returns tickets visible to the actor: everything for admins, the
// actor's own tickets for everyone else. The second result is the total
// matching count for pagination.
func (s *TicketService) List(ctx context.Context, actor *domain.User, input TicketListInput) ([]domain.Ticket, int, error) {
	filter := repository.TicketFilter{Sort: input.Sort}
	if actor.Role != domain.RoleAdmin {
		filter.CreatedBy = &actor.ID
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// ListByAssignedRole returns the queue for a support tier.
func (s *TicketService) ListByAssignedRole(ctx context.Context, actor *domain.User, role domain.Role) ([]domain.Ticket, error) {
	if d := policy.Decide(actor, policy.ActionListByRole, policy.Input{RequestedRole: role}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	assigned, ok := map[domain.Role]domain.AssignedRole{
		domain.RoleFirstLine:  domain.AssignedFirstLine,
		domain.RoleSecondLine: domain.AssignedSecondLine,
	}[role]
	if !ok {
		return nil, apperrors.NewValidationError("please provide a valid role")
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{AssignedRole: &assigned, Limit: 100})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Update applies a patch to a ticket. Every effective status or priority
// change appends exactly one ledger entry, written in the same transaction
// as the ticket itself.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionUpdateTicket, policy.Input{Ticket: ticket, NewPriority: patch.Priority}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	entries := ledgerEntries(ticket, patch, actor.ID)
	applyPatch(ticket, patch)

	if err := s.persist(ctx, ticket, entries); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketUpdatedPayload{Ticket: ticket},
	})
	return ticket, nil
}

// AssignRole routes a ticket to a support tier. Admin only. The ledger entry
// always records the unassigned sentinel as the old value, matching the
// long-standing product behavior.
func (s *TicketService) AssignRole(ctx context.Context, actor *domain.User, ticketID string, role domain.AssignedRole) (*domain.Ticket, error) {
	if d := policy.Decide(actor, policy.ActionAssignTicket, policy.Input{AssignRole: role}); !d.Allowed {
		if d.Reason == "please provide a valid role" {
			return nil, apperrors.NewValidationError(d.Reason)
		}
		return nil, apperrors.NewForbidden(d.Reason)
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.AssignedRole = role
	entry := domain.TicketHistory{
		TicketID:  ticket.ID,
		Field:     domain.HistoryFieldAssignedRole,
		OldValue:  string(domain.AssignedUnassigned),
		NewValue:  string(role),
		UpdatedBy: actor.ID,
	}
	if err := s.persist(ctx, ticket, []domain.TicketHistory{entry}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketAssignedPayload{AssignedRole: role},
	})
	return ticket, nil
}

// UpdatePriority changes the priority through the dedicated route, open to
// every support tier including first-line. A request carrying the current
// value is a no-op: no ledger entry, no event.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.User, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("please provide a valid priority")
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionUpdatePriority, policy.Input{Ticket: ticket}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	if priority == ticket.Priority {
		return ticket, nil
	}

	entry := domain.TicketHistory{
		TicketID:  ticket.ID,
		Field:     domain.HistoryFieldPriority,
		OldValue:  string(ticket.Priority),
		NewValue:  string(priority),
		UpdatedBy: actor.ID,
	}
	ticket.Priority = priority
	if err := s.persist(ctx, ticket, []domain.TicketHistory{entry}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketUpdatedPayload{Ticket: ticket},
	})
	return ticket, nil
}

// Delete hard-deletes a resolved ticket. Admin only; no tombstone.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return err
	}
	if d := policy.Decide(actor, policy.ActionDeleteTicket, policy.Input{Ticket: ticket}); !d.Allowed {
		return apperrors.NewForbidden(d.Reason)
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// SubmitFeedback records the creator's post-resolution rating. A repeated
// submission overwrites the previous one.
func (s *TicketService) SubmitFeedback(ctx context.Context, actor *domain.User, ticketID string, rating int, comment string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	decision := policy.Decide(actor, policy.ActionSubmitFeedback, policy.Input{Ticket: ticket, Rating: rating})
	if !decision.Allowed {
		if decision.Reason == "please provide a rating between 1 and 5" {
			return nil, apperrors.NewValidationError(decision.Reason)
		}
		if decision.Reason == "cannot submit feedback for unresolved tickets" {
			return nil, apperrors.NewValidationError(decision.Reason)
		}
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	ticket.Feedback = &domain.Feedback{
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: time.Now(),
	}
	if err := s.persist(ctx, ticket, nil); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("no ticket found with that id")
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) persist(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error {
	err := s.tickets.UpdateWithHistory(ctx, ticket, entries)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrRevisionConflict) {
		return apperrors.NewConflict("ticket was modified concurrently, please retry")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("no ticket found with that id")
	}
	return apperrors.MapError(err)
}

func validatePatch(patch TicketPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return apperrors.NewValidationError("please provide a valid status")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return apperrors.NewValidationError("please provide a valid priority")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return apperrors.NewValidationError("please select a valid category")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperrors.NewValidationError("please add a title")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return apperrors.NewValidationError("please add a description")
	}
	return nil
}

// ledgerEntries builds one entry per effective status or priority change.
// Content-only edits leave the ledger untouched.
func ledgerEntries(ticket *domain.Ticket, patch TicketPatch, actorID string) []domain.TicketHistory {
	var entries []domain.TicketHistory
	if patch.Status != nil && *patch.Status != ticket.Status {
		entries = append(entries, domain.TicketHistory{
			TicketID:  ticket.ID,
			Field:     domain.HistoryFieldStatus,
			OldValue:  string(ticket.Status),
			NewValue:  string(*patch.Status),
			UpdatedBy: actorID,
		})
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		entries = append(entries, domain.TicketHistory{
			TicketID:  ticket.ID,
			Field:     domain.HistoryFieldPriority,
			OldValue:  string(ticket.Priority),
			NewValue:  string(*patch.Priority),
			UpdatedBy: actorID,
		})
	}
	return entries
}

func applyPatch(ticket *domain.Ticket, patch TicketPatch) {
	if patch.Title != nil {
		ticket.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		ticket.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		ticket.Category = *patch.Category
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
