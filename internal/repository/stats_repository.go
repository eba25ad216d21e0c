package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// RoleStat breaks down one assigned role's tickets by status.
type RoleStat struct {
	Role     domain.AssignedRole `json:"role"`
	Statuses map[string]int      `json:"statuses"`
	Total    int                 `json:"total_tickets"`
}

// FeedbackStat is the average rating for tickets assigned to one role.
type FeedbackStat struct {
	Role          domain.AssignedRole `json:"role"`
	AverageRating float64             `json:"average_rating"`
	Count         int                 `json:"count"`
}

// StatsRepository runs the aggregate queries behind the dashboards.
type StatsRepository interface {
	CountTicketsByStatus(ctx context.Context) (map[string]int, error)
	CountTicketsByPriority(ctx context.Context) (map[string]int, error)
	CountTicketsByCategory(ctx context.Context) (map[string]int, error)
	RecentTickets(ctx context.Context, limit int) ([]domain.Ticket, error)
	RoleStats(ctx context.Context) ([]RoleStat, error)
	FeedbackStats(ctx context.Context) ([]FeedbackStat, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository builds repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) CountTicketsByStatus(ctx context.Context) (map[string]int, error) {
	return r.groupCount(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
}

func (r *statsRepository) CountTicketsByPriority(ctx context.Context) (map[string]int, error) {
	return r.groupCount(ctx, `SELECT priority, COUNT(*) FROM tickets GROUP BY priority`)
}

func (r *statsRepository) CountTicketsByCategory(ctx context.Context) (map[string]int, error) {
	return r.groupCount(ctx, `SELECT category, COUNT(*) FROM tickets GROUP BY category`)
}

func (r *statsRepository) groupCount(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func (r *statsRepository) RecentTickets(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *statsRepository) RoleStats(ctx context.Context) ([]RoleStat, error) {
	const query = `
        SELECT assigned_role, status, COUNT(*)
        FROM tickets GROUP BY assigned_role, status
        ORDER BY assigned_role, status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRole := make(map[domain.AssignedRole]*RoleStat)
	order := []domain.AssignedRole{}
	for rows.Next() {
		var role domain.AssignedRole
		var status string
		var count int
		if err := rows.Scan(&role, &status, &count); err != nil {
			return nil, err
		}
		stat, ok := byRole[role]
		if !ok {
			stat = &RoleStat{Role: role, Statuses: make(map[string]int)}
			byRole[role] = stat
			order = append(order, role)
		}
		stat.Statuses[status] = count
		stat.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]RoleStat, 0, len(order))
	for _, role := range order {
		result = append(result, *byRole[role])
	}
	return result, nil
}

func (r *statsRepository) FeedbackStats(ctx context.Context) ([]FeedbackStat, error) {
	const query = `
        SELECT assigned_role, AVG(feedback_rating), COUNT(*)
        FROM tickets WHERE feedback_rating IS NOT NULL
        GROUP BY assigned_role ORDER BY assigned_role`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FeedbackStat
	for rows.Next() {
		var stat FeedbackStat
		if err := rows.Scan(&stat.Role, &stat.AverageRating, &stat.Count); err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, rows.Err()
}
