package model

import "time"

// FuelType enum constants
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelLPG      FuelType = "lpg"
	FuelMethane  FuelType = "methane"
	FuelElectric FuelType = "electric"
)

// FuelRecord is a single refuelling. Only full-tank fills are usable for
// consumption math: the liters between two consecutive full tanks cover
// exactly the mileage delta between them.
type FuelRecord struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Mileage      float64   `json:"mileage"`
	Liters       float64   `json:"liters"`
	CostPerLiter float64   `json:"cost_per_liter"`
	TotalCost    float64   `json:"total_cost"`
	IsFullTank   bool      `json:"is_full_tank"`
	FuelType     FuelType  `json:"fuel_type"`
	Station      string    `json:"station,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FuelRecordPatch is the merge-patch shape for updating a fuel record.
type FuelRecordPatch struct {
	Date         *time.Time `json:"date,omitempty"`
	Mileage      *float64   `json:"mileage,omitempty"`
	Liters       *float64   `json:"liters,omitempty"`
	CostPerLiter *float64   `json:"cost_per_liter,omitempty"`
	TotalCost    *float64   `json:"total_cost,omitempty"`
	IsFullTank   *bool      `json:"is_full_tank,omitempty"`
	FuelType     *FuelType  `json:"fuel_type,omitempty"`
	Station      *string    `json:"station,omitempty"`
}
