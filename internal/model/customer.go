package model

import "time"

// Customer represents a workshop client, either a company or an individual.
// VATNumber and FiscalCode are both optional and not mutually exclusive; the
// company/individual split is a UI convention, not a stored constraint.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsCompany  bool      `json:"is_company"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	VATNumber  string    `json:"vat_number,omitempty"`
	FiscalCode string    `json:"fiscal_code,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CustomerPatch is the merge-patch shape for updating a customer.
type CustomerPatch struct {
	Name       *string `json:"name,omitempty"`
	IsCompany  *bool   `json:"is_company,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	VATNumber  *string `json:"vat_number,omitempty"`
	FiscalCode *string `json:"fiscal_code,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}
