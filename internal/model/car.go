package model

import (
	"time"
)

// Car is the aggregate root of the vehicle ledger. It owns every nested
// collection: the sub-records live and die with the car (deleting a car
// cascades, no tombstones are kept).
type Car struct {
	ID                 string     `json:"id"`
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	Year               int        `json:"year"`
	LicensePlate       string     `json:"license_plate"`
	VIN                string     `json:"vin,omitempty"`
	CurrentMileage     float64    `json:"current_mileage"`
	LastUpdatedMileage time.Time  `json:"last_updated_mileage"`
	InsuranceCompany   string     `json:"insurance_company,omitempty"`
	InsurancePolicyNo  string     `json:"insurance_policy_no,omitempty"`
	InsuranceExpiry    *time.Time `json:"insurance_expiry,omitempty"`
	IsActive           bool       `json:"is_active"`

	MaintenanceRecords []MaintenanceRecord `json:"maintenance_records"`
	Expenses           []Expense           `json:"expenses"`
	Documents          []Document          `json:"documents"`
	FuelRecords        []FuelRecord        `json:"fuel_records"`
	Reminders          []Reminder          `json:"reminders"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CarPatch carries the fields an update may touch. Nil means "leave as is"
// (merge-patch semantics).
type CarPatch struct {
	Make              *string    `json:"make,omitempty"`
	Model             *string    `json:"model,omitempty"`
	Year              *int       `json:"year,omitempty"`
	LicensePlate      *string    `json:"license_plate,omitempty"`
	VIN               *string    `json:"vin,omitempty"`
	InsuranceCompany  *string    `json:"insurance_company,omitempty"`
	InsurancePolicyNo *string    `json:"insurance_policy_no,omitempty"`
	InsuranceExpiry   *time.Time `json:"insurance_expiry,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
}
