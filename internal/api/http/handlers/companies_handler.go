package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordicdesk/helpdesk/internal/api/dto"
	"github.com/nordicdesk/helpdesk/internal/service"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// CompaniesHandler manages company administration endpoints. All routes are
// admin gated in the router.
type CompaniesHandler struct {
	service *service.CompanyService
}

// NewCompaniesHandler constructs handler.
func NewCompaniesHandler(companyService *service.CompanyService) *CompaniesHandler {
	return &CompaniesHandler{service: companyService}
}

// CreateCompany POST /companies.
func (h *CompaniesHandler) CreateCompany(c *fiber.Ctx) error {
	var req dto.CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	company, err := h.service.Create(c.UserContext(), companyInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.NewCompanyResponse(company),
	})
}

// ListCompanies GET /companies.
func (h *CompaniesHandler) ListCompanies(c *fiber.Ctx) error {
	companies, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(companies),
		"data":    dto.NewCompanyResponses(companies),
	})
}

// GetCompany GET /companies/:id.
func (h *CompaniesHandler) GetCompany(c *fiber.Ctx) error {
	company, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewCompanyResponse(company),
	})
}

// UpdateCompany PUT /companies/:id.
func (h *CompaniesHandler) UpdateCompany(c *fiber.Ctx) error {
	var req dto.CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	company, err := h.service.Update(c.UserContext(), c.Params("id"), companyInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewCompanyResponse(company),
	})
}

// DeleteCompany DELETE /companies/:id.
func (h *CompaniesHandler) DeleteCompany(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{},
	})
}

// CompanyUsers GET /companies/:id/users.
func (h *CompaniesHandler) CompanyUsers(c *fiber.Ctx) error {
	users, err := h.service.Users(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(users),
		"data":    dto.NewUserResponses(users),
	})
}

// CompanyTickets GET /companies/:id/tickets.
func (h *CompaniesHandler) CompanyTickets(c *fiber.Ctx) error {
	tickets, err := h.service.Tickets(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(tickets),
		"data":    dto.NewTicketResponses(tickets),
	})
}

func companyInput(req dto.CompanyRequest) service.CompanyInput {
	return service.CompanyInput{
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
}
