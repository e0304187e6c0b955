package model

import "time"

// MaintenanceType enumerates the kind of workshop intervention.
type MaintenanceType string

const (
	MaintenanceRoutine    MaintenanceType = "routine"
	MaintenanceRepair     MaintenanceType = "repair"
	MaintenanceInspection MaintenanceType = "inspection"
	MaintenanceOther      MaintenanceType = "other"
)

// MaintenanceStatus enumerates the lifecycle of a maintenance record.
type MaintenanceStatus string

const (
	MaintenanceCompleted MaintenanceStatus = "completed"
	MaintenanceScheduled MaintenanceStatus = "scheduled"
	MaintenanceOverdue   MaintenanceStatus = "overdue"
)

// MaintenanceRecord describes one intervention on a car. A record may carry a
// date threshold, a mileage threshold, or both; it counts as due as soon as
// either threshold is crossed.
type MaintenanceRecord struct {
	ID             string            `json:"id"`
	Date           time.Time         `json:"date"`
	Mileage        float64           `json:"mileage"`
	Cost           float64           `json:"cost"`
	Type           MaintenanceType   `json:"type"`
	Status         MaintenanceStatus `json:"status"`
	Description    string            `json:"description,omitempty"`
	Workshop       string            `json:"workshop,omitempty"`
	NextDueDate    *time.Time        `json:"next_due_date,omitempty"`
	NextDueMileage *float64          `json:"next_due_mileage,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// MaintenancePatch is the merge-patch shape for updating a record.
type MaintenancePatch struct {
	Date           *time.Time         `json:"date,omitempty"`
	Mileage        *float64           `json:"mileage,omitempty"`
	Cost           *float64           `json:"cost,omitempty"`
	Type           *MaintenanceType   `json:"type,omitempty"`
	Status         *MaintenanceStatus `json:"status,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Workshop       *string            `json:"workshop,omitempty"`
	NextDueDate    *time.Time         `json:"next_due_date,omitempty"`
	NextDueMileage *float64           `json:"next_due_mileage,omitempty"`
}
