package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType enum constants
type InvoiceType string

const (
	InvoiceCustomer InvoiceType = "customer"
	InvoiceSupplier InvoiceType = "supplier"
	InvoiceExpense  InvoiceType = "expense"
	InvoiceOther    InvoiceType = "other"
)

// InvoiceStatus enum constants
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceItem is one invoice line. Total and VATAmount are derived from the
// other fields and are never accepted from callers as-is. Discount is a
// percentage in [0,100]; VAT applies to the discounted net, never to gross.
type InvoiceItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
}

// InvoiceTotals groups the four derived monetary fields of an invoice. They
// must always equal the recomputation from the item lines.
type InvoiceTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalVAT      decimal.Decimal `json:"total_vat"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

// Invoice is the aggregate root of the invoicing ledger. Customer contact
// fields are a denormalized snapshot copied at creation time, so later edits
// to the Customer record never alter an issued invoice. CarID/RepairID
// optionally link the invoice to a workshop job on a specific vehicle.
type Invoice struct {
	ID     string        `json:"id"`
	Number string        `json:"number"`
	Type   InvoiceType   `json:"type"`
	Status InvoiceStatus `json:"status"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   time.Time  `json:"due_date"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`

	CustomerID         string `json:"customer_id,omitempty"`
	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email,omitempty"`
	CustomerAddress    string `json:"customer_address,omitempty"`
	CustomerVATNumber  string `json:"customer_vat_number,omitempty"`
	CustomerFiscalCode string `json:"customer_fiscal_code,omitempty"`

	CarID    string `json:"car_id,omitempty"`
	RepairID string `json:"repair_id,omitempty"`

	Items []InvoiceItem `json:"items"`
	InvoiceTotals

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoicePatch is the merge-patch shape for updating an invoice. When Items
// is non-nil the four derived totals are recomputed from it.
type InvoicePatch struct {
	Type      *InvoiceType  `json:"type,omitempty"`
	IssueDate *time.Time    `json:"issue_date,omitempty"`
	DueDate   *time.Time    `json:"due_date,omitempty"`
	CarID     *string       `json:"car_id,omitempty"`
	RepairID  *string       `json:"repair_id,omitempty"`
	Items     []InvoiceItem `json:"items,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
}

// TemplateItem is an item prototype without derived or identity fields.
type TemplateItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Discount    decimal.Decimal `json:"discount"`
}

// InvoiceTemplate is a named, reusable list of item prototypes used to seed a
// new invoice's lines.
type InvoiceTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Items       []TemplateItem `json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TemplatePatch is the merge-patch shape for updating a template.
type TemplatePatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Items       []TemplateItem `json:"items,omitempty"`
}
