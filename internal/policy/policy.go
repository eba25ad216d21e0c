// Package policy is the single decision point for ticket, comment, and
// feedback access. Decide is a pure function: it inspects the actor, the
// ticket, and the requested mutation, and returns Allow or Deny with a
// caller-facing reason. It never touches storage and has no side effects.
//
// Role capabilities are hierarchical (END_USER < FIRST_LINE < SECOND_LINE <
// ADMIN): anything granted to a lower tier is inherited upward. The hierarchy
// is additive only — explicit deny rules, such as the first-line priority
// carve-out, are evaluated first and are never overridden by it.
package policy

import (
	"github.com/nordicdesk/helpdesk/internal/domain"
)

// Action enumerates the gated operations.
type Action string

const (
	ActionReadTicket     Action = "ticket.read"
	ActionUpdateTicket   Action = "ticket.update"
	ActionUpdatePriority Action = "ticket.update_priority"
	ActionDeleteTicket   Action = "ticket.delete"
	ActionAssignTicket   Action = "ticket.assign"
	ActionListByRole     Action = "ticket.list_by_role"
	ActionReadComments   Action = "comment.read"
	ActionWriteComment   Action = "comment.write"
	ActionModifyComment  Action = "comment.modify"
	ActionSubmitFeedback Action = "feedback.submit"
	ActionChangeUserRole Action = "user.change_role"
)

// Input carries the mutation details a decision may depend on. Only the
// fields relevant to the action need to be set.
type Input struct {
	Ticket *domain.Ticket

	// NewPriority is the priority requested by an update, when present.
	NewPriority *domain.TicketPriority

	// AssignRole is the tier requested by an assignment.
	AssignRole domain.AssignedRole

	// RequestedRole is the tier whose ticket queue is being listed.
	RequestedRole domain.Role

	// TargetRole is the role being granted to another user.
	TargetRole domain.Role

	// CommentAuthorID is the author of the comment being modified.
	CommentAuthorID string

	// Rating is the feedback rating being submitted.
	Rating int
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow grants the action.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny rejects the action with a caller-facing reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Decide evaluates the ordered rules for the given action.
func Decide(actor *domain.User, action Action, in Input) Decision {
	if actor == nil {
		return Deny("authentication required")
	}

	switch action {
	case ActionReadTicket:
		return decideRead(actor, in.Ticket)
	case ActionUpdateTicket:
		return decideUpdate(actor, in)
	case ActionUpdatePriority:
		return decideUpdatePriority(actor, in.Ticket)
	case ActionDeleteTicket:
		return decideDelete(actor, in.Ticket)
	case ActionAssignTicket:
		return decideAssign(actor, in.AssignRole)
	case ActionListByRole:
		return decideListByRole(actor, in.RequestedRole)
	case ActionReadComments, ActionWriteComment:
		return decideCommentAccess(actor, in.Ticket)
	case ActionModifyComment:
		return decideCommentModify(actor, in.CommentAuthorID)
	case ActionSubmitFeedback:
		return decideFeedback(actor, in)
	case ActionChangeUserRole:
		return decideRoleChange(actor, in.TargetRole)
	}
	return Deny("unknown action")
}

func decideRead(actor *domain.User, ticket *domain.Ticket) Decision {
	if ticket == nil {
		return Deny("ticket required")
	}
	if actor.ID == ticket.CreatedBy {
		return Allow()
	}
	if actor.Role.IsSupport() {
		return Allow()
	}
	if ticket.AssignedRole.Matches(actor.Role) {
		return Allow()
	}
	return Deny("not authorized to access this ticket")
}

func decideUpdate(actor *domain.User, in Input) Decision {
	if in.Ticket == nil {
		return Deny("ticket required")
	}
	if actor.ID != in.Ticket.CreatedBy && !actor.Role.IsSupport() {
		return Deny("not authorized to update this ticket")
	}
	if in.NewPriority != nil && *in.NewPriority != in.Ticket.Priority {
		// Priority is a support/admin concern; the creator never touches it.
		if !actor.Role.IsSupport() {
			return Deny("not authorized to change ticket priority")
		}
		// First-line may move status and comment, but never priority. This
		// deny targets FIRST_LINE specifically; SECOND_LINE and ADMIN do
		// not inherit it.
		if actor.Role == domain.RoleFirstLine {
			return Deny("first-line support cannot change ticket priority")
		}
	}
	return Allow()
}

// The dedicated priority route is open to every support tier, first-line
// included. The first-line carve-out above applies only to priority changes
// smuggled into a generic update.
func decideUpdatePriority(actor *domain.User, ticket *domain.Ticket) Decision {
	if ticket == nil {
		return Deny("ticket required")
	}
	if !actor.Role.IsSupport() {
		return Deny("not authorized to change ticket priority")
	}
	return Allow()
}

func decideDelete(actor *domain.User, ticket *domain.Ticket) Decision {
	if ticket == nil {
		return Deny("ticket required")
	}
	if actor.Role != domain.RoleAdmin {
		return Deny("not authorized to delete tickets")
	}
	if ticket.Status != domain.TicketStatusResolved {
		return Deny("only resolved tickets can be deleted")
	}
	return Allow()
}

func decideAssign(actor *domain.User, role domain.AssignedRole) Decision {
	if actor.Role != domain.RoleAdmin {
		return Deny("not authorized to assign tickets")
	}
	if !role.Assignable() {
		return Deny("please provide a valid role")
	}
	return Allow()
}

func decideListByRole(actor *domain.User, requested domain.Role) Decision {
	if actor.Role == requested || actor.Role == domain.RoleAdmin {
		return Allow()
	}
	return Deny("not authorized to view these tickets")
}

// Comment access is narrower than ticket read: the creator and admins only.
// Support staff can read the ticket itself but are not listed here, matching
// the original product behavior.
func decideCommentAccess(actor *domain.User, ticket *domain.Ticket) Decision {
	if ticket == nil {
		return Deny("ticket required")
	}
	if actor.ID == ticket.CreatedBy || actor.Role == domain.RoleAdmin {
		return Allow()
	}
	return Deny("not authorized to access comments for this ticket")
}

func decideCommentModify(actor *domain.User, authorID string) Decision {
	if actor.ID == authorID || actor.Role == domain.RoleAdmin {
		return Allow()
	}
	return Deny("not authorized to modify this comment")
}

func decideFeedback(actor *domain.User, in Input) Decision {
	if in.Ticket == nil {
		return Deny("ticket required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return Deny("please provide a rating between 1 and 5")
	}
	if actor.ID != in.Ticket.CreatedBy {
		return Deny("not authorized to submit feedback for this ticket")
	}
	if in.Ticket.Status != domain.TicketStatusResolved {
		return Deny("cannot submit feedback for unresolved tickets")
	}
	return Allow()
}

func decideRoleChange(actor *domain.User, target domain.Role) Decision {
	if actor.Role != domain.RoleAdmin {
		return Deny("not authorized to change user roles")
	}
	if !target.Valid() {
		return Deny("invalid role")
	}
	// Only holders of ADMIN may mint new admins. Redundant with the rule
	// above today, but kept as its own check so loosening the first rule
	// can never silently open this one.
	if target == domain.RoleAdmin && actor.Role != domain.RoleAdmin {
		return Deny("not authorized to promote users to admin")
	}
	return Allow()
}
