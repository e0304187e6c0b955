package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CarStats aggregates per-car figures. Everything here is recomputed from the
// current collections on every call; nothing is cached.
type CarStats struct {
	TotalExpenses          float64    `json:"total_expenses"`
	MaintenanceCount       int        `json:"maintenance_count"`
	TotalFuelCost          float64    `json:"total_fuel_cost"`
	TotalMaintenanceCost   float64    `json:"total_maintenance_cost"`
	AvgFuelConsumption     *float64   `json:"avg_fuel_consumption,omitempty"` // liters/100km, nil below 2 full-tank samples
	KmSinceLastMaintenance *float64   `json:"km_since_last_maintenance,omitempty"`
	NextMaintenanceDate    *time.Time `json:"next_maintenance_date,omitempty"`
	NextMaintenanceMileage *float64   `json:"next_maintenance_mileage,omitempty"`
}

// FleetStats aggregates over active cars only.
type FleetStats struct {
	ActiveCars           int     `json:"active_cars"`
	TotalExpenses        float64 `json:"total_expenses"`
	TotalMaintenanceCost float64 `json:"total_maintenance_cost"`
	TotalFuelCost        float64 `json:"total_fuel_cost"`
	CarsNeedingAttention int     `json:"cars_needing_attention"`
}

// FuelTrendPoint is one calendar-month bucket of fuel spending and measured
// consumption.
type FuelTrendPoint struct {
	Month       string   `json:"month"` // YYYY-MM
	TotalCost   float64  `json:"total_cost"`
	Liters      float64  `json:"liters"`
	Consumption *float64 `json:"consumption,omitempty"` // liters/100km from intra-month full-tank deltas
}

// InvoiceStats is the revenue summary over the whole invoicing ledger.
// Overdue is a computed view of sent invoices past due date, not a stored
// status transition.
type InvoiceStats struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
	OverdueAmount    decimal.Decimal `json:"overdue_amount"`
	ThisMonthRevenue decimal.Decimal `json:"this_month_revenue"`
	LastMonthRevenue decimal.Decimal `json:"last_month_revenue"`
	InvoiceCount     int             `json:"invoice_count"`
	PaidCount        int             `json:"paid_count"`
}
