package ledger

import (
	"encoding/json"
	"fmt"

	"backend/internal/model"
)

// Blob store keys. Each ledger owns its own document.
const (
	FleetKey     = "fleet"
	InvoicingKey = "invoicing"
)

// Schema versions. Loading an older version runs the migrations below before
// the state is accepted; loading a newer version is refused outright.
const (
	fleetSnapshotVersion     = 2
	invoicingSnapshotVersion = 2
)

// FleetSnapshot is the serialized projection of the vehicle ledger.
type FleetSnapshot struct {
	Version int         `json:"version"`
	Cars    []model.Car `json:"cars"`
}

// InvoicingSnapshot is the serialized projection of the invoice ledger,
// including the numbering counter so sequences survive restarts.
type InvoicingSnapshot struct {
	Version           int                     `json:"version"`
	Customers         []model.Customer        `json:"customers"`
	Invoices          []model.Invoice         `json:"invoices"`
	Templates         []model.InvoiceTemplate `json:"templates"`
	NextInvoiceNumber int                     `json:"next_invoice_number"`
}

func decodeFleetSnapshot(data []byte) (*FleetSnapshot, error) {
	var snap FleetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("malformed fleet snapshot: %w", err)
	}
	if snap.Version > fleetSnapshotVersion {
		return nil, fmt.Errorf("fleet snapshot version %d is newer than supported %d", snap.Version, fleetSnapshotVersion)
	}
	migrateFleetSnapshot(&snap)
	return &snap, nil
}

// migrateFleetSnapshot fills fields introduced after the stored version was
// written. It only ever adds defaults, it never drops data.
func migrateFleetSnapshot(snap *FleetSnapshot) {
	if snap.Version < 2 {
		// v1 predates the active flag; every existing car was implicitly active.
		for i := range snap.Cars {
			snap.Cars[i].IsActive = true
		}
	}
	for i := range snap.Cars {
		ensureCarCollections(&snap.Cars[i])
	}
	snap.Version = fleetSnapshotVersion
}

func decodeInvoicingSnapshot(data []byte) (*InvoicingSnapshot, error) {
	var snap InvoicingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("malformed invoicing snapshot: %w", err)
	}
	if snap.Version > invoicingSnapshotVersion {
		return nil, fmt.Errorf("invoicing snapshot version %d is newer than supported %d", snap.Version, invoicingSnapshotVersion)
	}
	migrateInvoicingSnapshot(&snap)
	return &snap, nil
}

func migrateInvoicingSnapshot(snap *InvoicingSnapshot) {
	// v1 predates templates; an absent list is simply empty.
	if snap.Templates == nil {
		snap.Templates = []model.InvoiceTemplate{}
	}
	if snap.NextInvoiceNumber < 1 {
		snap.NextInvoiceNumber = 1
	}
	if snap.Customers == nil {
		snap.Customers = []model.Customer{}
	}
	if snap.Invoices == nil {
		snap.Invoices = []model.Invoice{}
	}
	snap.Version = invoicingSnapshotVersion
}

// ensureCarCollections upholds the one structural invariant of the vehicle
// ledger: every car carries exactly one of each owned collection, never nil.
func ensureCarCollections(c *model.Car) {
	if c.MaintenanceRecords == nil {
		c.MaintenanceRecords = []model.MaintenanceRecord{}
	}
	if c.Expenses == nil {
		c.Expenses = []model.Expense{}
	}
	if c.Documents == nil {
		c.Documents = []model.Document{}
	}
	if c.FuelRecords == nil {
		c.FuelRecords = []model.FuelRecord{}
	}
	if c.Reminders == nil {
		c.Reminders = []model.Reminder{}
	}
}
