package model

import "time"

// ExpenseCategory enum constants
type ExpenseCategory string

const (
	ExpenseFuel        ExpenseCategory = "fuel"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseInsurance   ExpenseCategory = "insurance"
	ExpenseParking     ExpenseCategory = "parking"
	ExpenseToll        ExpenseCategory = "toll"
	ExpenseOther       ExpenseCategory = "other"
)

// Expense is a generic cost entry attached to a car.
type Expense struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      float64         `json:"amount"`
	Category    ExpenseCategory `json:"category"`
	Description string          `json:"description,omitempty"`
	Mileage     *float64        `json:"mileage,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExpensePatch is the merge-patch shape for updating an expense.
type ExpensePatch struct {
	Date        *time.Time       `json:"date,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
	Category    *ExpenseCategory `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Mileage     *float64         `json:"mileage,omitempty"`
}
