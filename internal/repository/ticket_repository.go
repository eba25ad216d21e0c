package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// ErrRevisionConflict signals that a concurrent writer updated the ticket
// between this caller's read and write.
var ErrRevisionConflict = errors.New("ticket was modified concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatedBy    *string
	CompanyID    *string
	AssignedRole *domain.AssignedRole
	Statuses     []domain.TicketStatus
	Sort         string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	// UpdateWithHistory persists the ticket and appends the given ledger
	// entries in one transaction, guarded by a revision compare-and-swap.
	// Returns ErrRevisionConflict when a concurrent writer got there first.
	UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, category, status, priority, assigned_role, created_by, company_id,
	feedback_rating, feedback_comment, feedback_submitted_at, revision, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, status, priority, assigned_role, created_by, company_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, revision, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedRole,
		ticket.CreatedBy,
		ticket.CompanyID,
	).Scan(&ticket.ID, &ticket.Revision, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), sortClause(filter.Sort), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	clauses, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ticketRepository) UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE tickets SET title=$1, description=$2, category=$3, status=$4, priority=$5, assigned_role=$6,
            feedback_rating=$7, feedback_comment=$8, feedback_submitted_at=$9,
            revision=revision+1, updated_at=NOW()
        WHERE id=$10 AND revision=$11
        RETURNING revision, updated_at`

	var rating *int
	var comment *string
	var submittedAt *time.Time
	if ticket.Feedback != nil {
		rating = &ticket.Feedback.Rating
		comment = &ticket.Feedback.Comment
		submittedAt = &ticket.Feedback.SubmittedAt
	}

	err = tx.QueryRow(ctx, update,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedRole,
		rating,
		comment,
		submittedAt,
		ticket.ID,
		ticket.Revision,
	).Scan(&ticket.Revision, &ticket.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The row is either gone or on a newer revision.
			var exists bool
			if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); checkErr == nil && exists {
				return ErrRevisionConflict
			}
			return pgx.ErrNoRows
		}
		return err
	}

	const insertHistory = `
        INSERT INTO ticket_history (ticket_id, field, old_value, new_value, updated_by)
        VALUES ($1,$2,$3,$4,$5)`
	for _, entry := range entries {
		if _, err := tx.Exec(ctx, insertHistory,
			entry.TicketID,
			entry.Field,
			entry.OldValue,
			entry.NewValue,
			entry.UpdatedBy,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) Touch(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func filterClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		clauses = append(clauses, fmt.Sprintf("company_id=$%d", len(args)))
	}
	if filter.AssignedRole != nil {
		args = append(args, *filter.AssignedRole)
		clauses = append(clauses, fmt.Sprintf("assigned_role=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	return clauses, args
}

// sortClause maps client sort keys onto a whitelist of columns. Defaults to
// newest first.
func sortClause(sort string) string {
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")
	column, ok := map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"priority":  "priority",
		"status":    "status",
		"title":     "title",
	}[key]
	if !ok {
		return "created_at DESC"
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var rating *int
	var comment *string
	var submittedAt *time.Time

	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedRole,
		&ticket.CreatedBy,
		&ticket.CompanyID,
		&rating,
		&comment,
		&submittedAt,
		&ticket.Revision,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if rating != nil {
		feedback := &domain.Feedback{Rating: *rating}
		if comment != nil {
			feedback.Comment = *comment
		}
		if submittedAt != nil {
			feedback.SubmittedAt = *submittedAt
		}
		ticket.Feedback = feedback
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
