package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordicdesk/helpdesk/internal/service"
)

// StatsHandler serves dashboard aggregates. Admin gated in the router.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// Overview GET /stats.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.service.GetOverview(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    overview,
	})
}

// FeedbackStats GET /feedback/stats.
func (h *StatsHandler) FeedbackStats(c *fiber.Ctx) error {
	stats, err := h.service.GetFeedbackStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(stats),
		"data":    stats,
	})
}
