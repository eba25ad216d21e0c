package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/repository"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// CompanyService manages company records and their user/ticket rollups.
type CompanyService struct {
	companies repository.CompanyRepository
	users     repository.UserRepository
	tickets   repository.TicketRepository
}

// NewCompanyService constructs the service.
func NewCompanyService(companies repository.CompanyRepository, users repository.UserRepository, tickets repository.TicketRepository) *CompanyService {
	return &CompanyService{companies: companies, users: users, tickets: tickets}
}

// CompanyInput describes creation/update payload.
type CompanyInput struct {
	Name         string
	Description  string
	Address      domain.CompanyAddress
	ContactEmail string
	ContactPhone string
}

// Create adds a company. Names are unique.
func (s *CompanyService) Create(ctx context.Context, input CompanyInput) (*domain.Company, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("please add a company name")
	}
	if _, err := s.companies.GetByName(ctx, strings.TrimSpace(input.Name)); err == nil {
		return nil, apperrors.NewConflict("duplicate field value entered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	company := &domain.Company{
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Address:      input.Address,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, apperrors.MapError(err)
	}
	return company, nil
}

// List returns all companies.
func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return companies, nil
}

// Get returns one company.
func (s *CompanyService) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	return s.load(ctx, companyID)
}

// Update replaces company details.
func (s *CompanyService) Update(ctx context.Context, companyID string, input CompanyInput) (*domain.Company, error) {
	company, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) != "" {
		company.Name = strings.TrimSpace(input.Name)
	}
	company.Description = input.Description
	company.Address = input.Address
	company.ContactEmail = input.ContactEmail
	company.ContactPhone = input.ContactPhone

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, apperrors.MapError(err)
	}
	return company, nil
}

// Delete removes a company, refusing while any user or ticket references it.
func (s *CompanyService) Delete(ctx context.Context, companyID string) error {
	if _, err := s.load(ctx, companyID); err != nil {
		return err
	}

	userCount, err := s.users.CountByCompany(ctx, companyID)
	if err != nil {
		return apperrors.MapError(err)
	}
	ticketCount, err := s.companies.CountTickets(ctx, companyID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if userCount > 0 || ticketCount > 0 {
		return apperrors.NewValidationError("cannot delete company with associated users or tickets")
	}

	if err := s.companies.Delete(ctx, companyID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Users returns the company's members.
func (s *CompanyService) Users(ctx context.Context, companyID string) ([]domain.User, error) {
	if _, err := s.load(ctx, companyID); err != nil {
		return nil, err
	}
	users, err := s.users.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Tickets returns tickets raised by the company's members, newest first.
func (s *CompanyService) Tickets(ctx context.Context, companyID string) ([]domain.Ticket, error) {
	if _, err := s.load(ctx, companyID); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{CompanyID: &companyID, Limit: 100})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *CompanyService) load(ctx context.Context, companyID string) (*domain.Company, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("no company found with that id")
		}
		return nil, apperrors.MapError(err)
	}
	return company, nil
}
