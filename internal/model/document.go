package model

import "time"

// DocumentType enum constants
type DocumentType string

const (
	DocInsurance    DocumentType = "insurance"
	DocRegistration DocumentType = "registration"
	DocInspection   DocumentType = "inspection"
	DocWarranty     DocumentType = "warranty"
	DocOther        DocumentType = "other"
)

// Document is a paper attached to a car (insurance card, registration, ...).
// ExpiryDate is optional; documents without one never show up as expiring.
type Document struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	IssueDate  time.Time    `json:"issue_date"`
	ExpiryDate *time.Time   `json:"expiry_date,omitempty"`
	FileURL    string       `json:"file_url,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// DocumentPatch is the merge-patch shape for updating a document.
type DocumentPatch struct {
	Name       *string       `json:"name,omitempty"`
	Type       *DocumentType `json:"type,omitempty"`
	IssueDate  *time.Time    `json:"issue_date,omitempty"`
	ExpiryDate *time.Time    `json:"expiry_date,omitempty"`
	FileURL    *string       `json:"file_url,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
}
