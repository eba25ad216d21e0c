package dto

import (
	"time"

	"github.com/nordicdesk/helpdesk/internal/domain"
)

// CompanyRequest is the creation/update payload for a company.
type CompanyRequest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Address      domain.CompanyAddress `json:"address"`
	ContactEmail string                `json:"contact_email"`
	ContactPhone string                `json:"contact_phone"`
}

// CompanyResponse is the wire form of a company.
type CompanyResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Address      domain.CompanyAddress `json:"address"`
	ContactEmail string                `json:"contact_email,omitempty"`
	ContactPhone string                `json:"contact_phone,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewCompanyResponse maps a domain company.
func NewCompanyResponse(company *domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:           company.ID,
		Name:         company.Name,
		Description:  company.Description,
		Address:      company.Address,
		ContactEmail: company.ContactEmail,
		ContactPhone: company.ContactPhone,
		CreatedAt:    company.CreatedAt,
		UpdatedAt:    company.UpdatedAt,
	}
}

// NewCompanyResponses maps a slice of companies.
func NewCompanyResponses(companies []domain.Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		out = append(out, NewCompanyResponse(&companies[i]))
	}
	return out
}
