package domain

import "time"

// CompanyAddress is the postal address block on a company record.
type CompanyAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// Company groups end-users and, transitively, their tickets.
// A company cannot be deleted while any user or ticket references it.
type Company struct {
	ID           string
	Name         string
	Description  string
	Address      CompanyAddress
	ContactEmail string
	ContactPhone string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
