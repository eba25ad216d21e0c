package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nordicdesk/helpdesk/internal/api/dto"
	"github.com/nordicdesk/helpdesk/internal/auth"
	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/service"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// TicketsHandler manages the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
	stats   *service.StatsService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, statsService *service.StatsService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, stats: statsService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.Create(c.UserContext(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.TicketCategory(req.Category),
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.NewTicketResponse(ticket),
	})
}

// ListTickets GET /tickets. Admins see every ticket, everyone else their own.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	page := parseIntQuery(c.Query("page"), 1)
	limit := parseIntQuery(c.Query("limit"), 10)
	tickets, total, err := h.service.List(c.UserContext(), actor, service.TicketListInput{
		Sort:  c.Query("sort"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return err
	}

	response := fiber.Map{
		"success": true,
		"count":   len(tickets),
		"total":   total,
		"data":    dto.NewTicketResponses(tickets),
	}
	if pagination := dto.BuildPagination(page, limit, total); pagination != nil {
		response["pagination"] = pagination
	}
	return c.JSON(response)
}

// GetTicket GET /tickets/:id. Returns the ticket with its audit ledger.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), actor, ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.TicketDetailResponse{
			TicketResponse: dto.NewTicketResponse(ticket),
			History:        dto.NewHistoryResponses(history),
		},
	})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	patch := service.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Category != nil {
		category := domain.TicketCategory(*req.Category)
		patch.Category = &category
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		patch.Priority = &priority
	}

	ticket, err := h.service.Update(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewTicketResponse(ticket),
	})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{},
	})
}

// AssignRole PUT /tickets/:id/assign.
func (h *TicketsHandler) AssignRole(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.AssignRole(c.UserContext(), actor, c.Params("id"), domain.AssignedRole(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewTicketResponse(ticket),
	})
}

// UpdatePriority PUT /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.UpdatePriority(c.UserContext(), actor, c.Params("id"), domain.TicketPriority(req.Priority))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewTicketResponse(ticket),
	})
}

// ListByRole GET /tickets/role/:role. The support queue for one tier.
func (h *TicketsHandler) ListByRole(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	role, ok := domain.ParseRole(c.Params("role"))
	if !ok {
		return apperrors.NewValidationError("please provide a valid role")
	}
	tickets, err := h.service.ListByAssignedRole(c.UserContext(), actor, role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(tickets),
		"data":    dto.NewTicketResponses(tickets),
	})
}

// RoleStats GET /tickets/stats/roles. Admin only.
func (h *TicketsHandler) RoleStats(c *fiber.Ctx) error {
	stats, err := h.stats.GetRoleStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(stats),
		"data":    stats,
	})
}

// SubmitFeedback POST /tickets/:id/feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.SubmitFeedback(c.UserContext(), actor, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewTicketResponse(ticket),
	})
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
