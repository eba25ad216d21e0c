package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/policy"
	"github.com/nordicdesk/helpdesk/internal/repository"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// UserService handles account administration: listing, profile updates, role
// reassignment, and company membership.
type UserService struct {
	users     repository.UserRepository
	companies repository.CompanyRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, companies repository.CompanyRepository) *UserService {
	return &UserService{users: users, companies: companies}
}

// UserPatch carries profile fields an update may change. Passwords never go
// through this path.
type UserPatch struct {
	Name  *string
	Email *string
	Role  *domain.Role
}

// List returns all accounts.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.load(ctx, userID)
}

// Update applies a profile patch. A role change rides through the same
// policy gate as the dedicated role route.
func (s *UserService) Update(ctx context.Context, actor *domain.User, userID string, patch UserPatch) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Role != nil && *patch.Role != user.Role {
		if d := policy.Decide(actor, policy.ActionChangeUserRole, policy.Input{TargetRole: *patch.Role}); !d.Allowed {
			return nil, apperrors.NewForbidden(d.Reason)
		}
		user.Role = *patch.Role
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("please add a name")
		}
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		if strings.TrimSpace(*patch.Email) == "" {
			return nil, apperrors.NewValidationError("please add an email")
		}
		user.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateRole reassigns a user's tier.
func (s *UserService) UpdateRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role")
	}
	if d := policy.Decide(actor, policy.ActionChangeUserRole, policy.Input{TargetRole: role}); !d.Allowed {
		return nil, apperrors.NewForbidden(d.Reason)
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// AssignCompany links a user to a company.
func (s *UserService) AssignCompany(ctx context.Context, userID, companyID string) (*domain.User, error) {
	if companyID == "" {
		return nil, apperrors.NewValidationError("please provide a company id")
	}
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("no company found with that id")
		}
		return nil, apperrors.MapError(err)
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.CompanyID = &companyID
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// RemoveCompany clears a user's company link.
func (s *UserService) RemoveCompany(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.CompanyID = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) load(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("no user found with that id")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
