package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordicdesk/helpdesk/internal/api/dto"
	"github.com/nordicdesk/helpdesk/internal/auth"
	"github.com/nordicdesk/helpdesk/internal/service"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// AuthHandler manages registration and session endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	user, token, expiresAt, err := h.service.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": dto.AuthResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      dto.NewUserResponse(user),
		},
	})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	user, token, expiresAt, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.AuthResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      dto.NewUserResponse(user),
		},
	})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(actor),
	})
}

// Logout GET /auth/logout. Tokens are stateless; the client drops its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), ""); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{},
	})
}
