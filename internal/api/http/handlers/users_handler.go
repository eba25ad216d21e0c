package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordicdesk/helpdesk/internal/api/dto"
	"github.com/nordicdesk/helpdesk/internal/auth"
	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/service"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// UsersHandler manages account administration endpoints. All routes are admin
// gated in the router.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(users),
		"data":    dto.NewUserResponses(users),
	})
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(user),
	})
}

// UpdateUser PUT /users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	patch := service.UserPatch{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role, valid := domain.ParseRole(*req.Role)
		if !valid {
			return apperrors.NewValidationError("invalid role")
		}
		patch.Role = &role
	}

	user, err := h.service.Update(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(user),
	})
}

// UpdateRole PUT /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	user, err := h.service.UpdateRole(c.UserContext(), actor, c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(user),
	})
}

// AssignCompany PUT /users/:id/company.
func (h *UsersHandler) AssignCompany(c *fiber.Ctx) error {
	var req dto.AssignCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	user, err := h.service.AssignCompany(c.UserContext(), c.Params("id"), req.CompanyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(user),
	})
}

// RemoveCompany DELETE /users/:id/company.
func (h *UsersHandler) RemoveCompany(c *fiber.Ctx) error {
	user, err := h.service.RemoveCompany(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(user),
	})
}
