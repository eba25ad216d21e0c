package dto

import (
	"time"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// UserResponse is the public view of an account. Password material never
// leaves the service.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CompanyID *string     `json:"company_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// UpdateUserRequest is the profile patch. Absent fields stay untouched.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// UpdateRoleRequest reassigns a user's tier.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// AssignCompanyRequest links a user to a company.
type AssignCompanyRequest struct {
	CompanyID string `json:"company_id"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		CreatedAt: user.CreatedAt,
	}
}

// NewUserResponses maps a slice of domain users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
