package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/repository"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

const (
	statsCacheKey = "helpdesk:stats:overview"
	statsCacheTTL = 30 * time.Second
)

// Overview is the dashboard payload behind GET /stats.
type Overview struct {
	StatusStats   map[string]int  `json:"status_stats"`
	PriorityStats map[string]int  `json:"priority_stats"`
	CategoryStats map[string]int  `json:"category_stats"`
	RecentTickets []domain.Ticket `json:"recent_tickets"`
	UserCount     int             `json:"user_count"`
	AdminCount    int             `json:"admin_count"`
}

// StatsService aggregates dashboard numbers, with a short-lived Redis cache
// in front of the GROUP BY queries.
type StatsService struct {
	stats  repository.StatsRepository
	users  repository.UserRepository
	cache  *redis.Client
	logger *zap.Logger
}

// NewStatsService constructs the service. cache may be nil; the queries then
// run uncached.
func NewStatsService(stats repository.StatsRepository, users repository.UserRepository, cache *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{stats: stats, users: users, cache: cache, logger: logger}
}

// GetOverview returns the dashboard stats.
func (s *StatsService) GetOverview(ctx context.Context) (*Overview, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	statusStats, err := s.stats.CountTicketsByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	// Zero-fill the three lifecycle states so the dashboard always renders
	// a complete breakdown.
	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved} {
		if _, ok := statusStats[string(status)]; !ok {
			statusStats[string(status)] = 0
		}
	}

	priorityStats, err := s.stats.CountTicketsByPriority(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categoryStats, err := s.stats.CountTicketsByCategory(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	recent, err := s.stats.RecentTickets(ctx, 5)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	userCount, err := s.users.CountByRole(ctx, domain.RoleEndUser)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	adminCount, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	overview := &Overview{
		StatusStats:   statusStats,
		PriorityStats: priorityStats,
		CategoryStats: categoryStats,
		RecentTickets: recent,
		UserCount:     userCount,
		AdminCount:    adminCount,
	}
	s.toCache(ctx, overview)
	return overview, nil
}

// GetRoleStats returns per-tier ticket counts broken down by status.
func (s *StatsService) GetRoleStats(ctx context.Context) ([]repository.RoleStat, error) {
	stats, err := s.stats.RoleStats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// GetFeedbackStats returns average ratings grouped by assigned role.
func (s *StatsService) GetFeedbackStats(ctx context.Context) ([]repository.FeedbackStat, error) {
	stats, err := s.stats.FeedbackStats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *StatsService) fromCache(ctx context.Context) *Overview {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var overview Overview
	if err := json.Unmarshal(raw, &overview); err != nil {
		return nil
	}
	return &overview
}

func (s *StatsService) toCache(ctx context.Context, overview *Overview) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
