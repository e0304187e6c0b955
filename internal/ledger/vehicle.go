package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"backend/internal/model"
)

// VehicleLedger owns the car collection and everything nested under it. All
// operations are synchronous: a getter called right after a mutator observes
// the mutation. Writes against unknown ids are silent no-ops; reads return
// empty results.
type VehicleLedger struct {
	cfg config

	mu   sync.RWMutex
	cars []model.Car

	persist *persister
}

// NewVehicleLedger loads the fleet snapshot from the store (empty state when
// none exists) and starts the background persister.
func NewVehicleLedger(ctx context.Context, store BlobStore, opts ...Option) (*VehicleLedger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &VehicleLedger{cfg: cfg, cars: []model.Car{}}

	if store != nil {
		data, err := store.Load(ctx, FleetKey)
		if err != nil {
			return nil, fmt.Errorf("load fleet snapshot: %w", err)
		}
		if data != nil {
			snap, err := decodeFleetSnapshot(data)
			if err != nil {
				return nil, err
			}
			l.cars = snap.Cars
		}
		l.persist = newPersister(store, FleetKey, cfg.log)
	}

	return l, nil
}

// Close flushes pending persistence work.
func (l *VehicleLedger) Close() {
	if l.persist != nil {
		l.persist.Close()
	}
}

// --- Cars ---

// AddCar mints id and timestamps, forces the owned collections to exist, and
// stores the car. Field contents are the caller's responsibility.
func (l *VehicleLedger) AddCar(car model.Car) model.Car {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.clock.Now()
	car.ID = l.cfg.newID()
	car.CreatedAt = now
	car.UpdatedAt = now
	car.MaintenanceRecords = []model.MaintenanceRecord{}
	car.Expenses = []model.Expense{}
	car.Documents = []model.Document{}
	car.FuelRecords = []model.FuelRecord{}
	car.Reminders = []model.Reminder{}

	l.cars = append(l.cars, car)
	l.persistLocked()
	publish(&l.cfg, "car.created", car.ID)
	return cloneCar(car)
}

// GetCar returns a copy of the car, or false when the id is unknown.
func (l *VehicleLedger) GetCar(id string) (model.Car, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if c := l.find(id); c != nil {
		return cloneCar(*c), true
	}
	return model.Car{}, false
}

// ListCars returns copies of all cars.
func (l *VehicleLedger) ListCars() []model.Car {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Car, len(l.cars))
	for i, c := range l.cars {
		out[i] = cloneCar(c)
	}
	return out
}

// UpdateCar applies a merge-patch: only non-nil fields change.
func (l *VehicleLedger) UpdateCar(id string, patch model.CarPatch) (model.Car, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(id)
	if c == nil {
		return model.Car{}, false
	}

	if patch.Make != nil {
		c.Make = *patch.Make
	}
	if patch.Model != nil {
		c.Model = *patch.Model
	}
	if patch.Year != nil {
		c.Year = *patch.Year
	}
	if patch.LicensePlate != nil {
		c.LicensePlate = *patch.LicensePlate
	}
	if patch.VIN != nil {
		c.VIN = *patch.VIN
	}
	if patch.InsuranceCompany != nil {
		c.InsuranceCompany = *patch.InsuranceCompany
	}
	if patch.InsurancePolicyNo != nil {
		c.InsurancePolicyNo = *patch.InsurancePolicyNo
	}
	if patch.InsuranceExpiry != nil {
		expiry := *patch.InsuranceExpiry
		c.InsuranceExpiry = &expiry
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	c.UpdatedAt = l.cfg.clock.Now()

	l.persistLocked()
	publish(&l.cfg, "car.updated", c.ID)
	return cloneCar(*c), true
}

// DeleteCar removes the car and, by ownership, every nested record. Deleting
// an unknown id is a no-op.
func (l *VehicleLedger) DeleteCar(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.cars, func(c model.Car) bool { return c.ID == id })
	if idx < 0 {
		return
	}
	l.cars = slices.Delete(l.cars, idx, idx+1)
	l.persistLocked()
	publish(&l.cfg, "car.deleted", id)
}

// UpdateMileage sets the odometer reading and stamps the reading date. A lower
// value than the current one is accepted (correcting a typo is legitimate) but
// logged, since it usually signals bad input.
func (l *VehicleLedger) UpdateMileage(id string, mileage float64) (model.Car, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(id)
	if c == nil {
		return model.Car{}, false
	}
	if mileage < c.CurrentMileage {
		l.cfg.log.Warn().
			Str("car_id", id).
			Float64("current", c.CurrentMileage).
			Float64("new", mileage).
			Msg("mileage decreased")
	}
	now := l.cfg.clock.Now()
	c.CurrentMileage = mileage
	c.LastUpdatedMileage = now
	c.UpdatedAt = now

	l.persistLocked()
	publish(&l.cfg, "car.updated", c.ID)
	return cloneCar(*c), true
}

// --- Maintenance records ---

func (l *VehicleLedger) AddMaintenance(carID string, rec model.MaintenanceRecord) (model.MaintenanceRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.MaintenanceRecord{}, false
	}
	now := l.cfg.clock.Now()
	rec.ID = l.cfg.newID()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	c.MaintenanceRecords = append(c.MaintenanceRecords, rec)
	c.UpdatedAt = now

	l.persistLocked()
	publish(&l.cfg, "maintenance.created", rec.ID)
	return rec, true
}

func (l *VehicleLedger) UpdateMaintenance(carID, recID string, patch model.MaintenancePatch) (model.MaintenanceRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.MaintenanceRecord{}, false
	}
	for i := range c.MaintenanceRecords {
		rec := &c.MaintenanceRecords[i]
		if rec.ID != recID {
			continue
		}
		if patch.Date != nil {
			rec.Date = *patch.Date
		}
		if patch.Mileage != nil {
			rec.Mileage = *patch.Mileage
		}
		if patch.Cost != nil {
			rec.Cost = *patch.Cost
		}
		if patch.Type != nil {
			rec.Type = *patch.Type
		}
		if patch.Status != nil {
			rec.Status = *patch.Status
		}
		if patch.Description != nil {
			rec.Description = *patch.Description
		}
		if patch.Workshop != nil {
			rec.Workshop = *patch.Workshop
		}
		if patch.NextDueDate != nil {
			due := *patch.NextDueDate
			rec.NextDueDate = &due
		}
		if patch.NextDueMileage != nil {
			due := *patch.NextDueMileage
			rec.NextDueMileage = &due
		}
		rec.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "maintenance.updated", rec.ID)
		return *rec, true
	}
	return model.MaintenanceRecord{}, false
}

func (l *VehicleLedger) DeleteMaintenance(carID, recID string) {
	l.deleteSub(carID, "maintenance.deleted", recID, func(c *model.Car) bool {
		idx := slices.IndexFunc(c.MaintenanceRecords, func(r model.MaintenanceRecord) bool { return r.ID == recID })
		if idx < 0 {
			return false
		}
		c.MaintenanceRecords = slices.Delete(c.MaintenanceRecords, idx, idx+1)
		return true
	})
}

// --- Expenses ---

func (l *VehicleLedger) AddExpense(carID string, exp model.Expense) (model.Expense, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Expense{}, false
	}
	now := l.cfg.clock.Now()
	exp.ID = l.cfg.newID()
	exp.CreatedAt = now
	exp.UpdatedAt = now
	c.Expenses = append(c.Expenses, exp)
	c.UpdatedAt = now

	l.persistLocked()
	publish(&l.cfg, "expense.created", exp.ID)
	return exp, true
}

func (l *VehicleLedger) UpdateExpense(carID, expID string, patch model.ExpensePatch) (model.Expense, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Expense{}, false
	}
	for i := range c.Expenses {
		exp := &c.Expenses[i]
		if exp.ID != expID {
			continue
		}
		if patch.Date != nil {
			exp.Date = *patch.Date
		}
		if patch.Amount != nil {
			exp.Amount = *patch.Amount
		}
		if patch.Category != nil {
			exp.Category = *patch.Category
		}
		if patch.Description != nil {
			exp.Description = *patch.Description
		}
		if patch.Mileage != nil {
			m := *patch.Mileage
			exp.Mileage = &m
		}
		exp.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "expense.updated", exp.ID)
		return *exp, true
	}
	return model.Expense{}, false
}

func (l *VehicleLedger) DeleteExpense(carID, expID string) {
	l.deleteSub(carID, "expense.deleted", expID, func(c *model.Car) bool {
		idx := slices.IndexFunc(c.Expenses, func(e model.Expense) bool { return e.ID == expID })
		if idx < 0 {
			return false
		}
		c.Expenses = slices.Delete(c.Expenses, idx, idx+1)
		return true
	})
}

// --- Documents ---

func (l *VehicleLedger) AddDocument(carID string, doc model.Document) (model.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Document{}, false
	}
	now := l.cfg.clock.Now()
	doc.ID = l.cfg.newID()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	c.Documents = append(c.Documents, doc)
	c.UpdatedAt = now

	l.persistLocked()
	publish(&l.cfg, "document.created", doc.ID)
	return doc, true
}

func (l *VehicleLedger) UpdateDocument(carID, docID string, patch model.DocumentPatch) (model.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Document{}, false
	}
	for i := range c.Documents {
		doc := &c.Documents[i]
		if doc.ID != docID {
			continue
		}
		if patch.Name != nil {
			doc.Name = *patch.Name
		}
		if patch.Type != nil {
			doc.Type = *patch.Type
		}
		if patch.IssueDate != nil {
			doc.IssueDate = *patch.IssueDate
		}
		if patch.ExpiryDate != nil {
			expiry := *patch.ExpiryDate
			doc.ExpiryDate = &expiry
		}
		if patch.FileURL != nil {
			doc.FileURL = *patch.FileURL
		}
		if patch.Notes != nil {
			doc.Notes = *patch.Notes
		}
		doc.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "document.updated", doc.ID)
		return *doc, true
	}
	return model.Document{}, false
}

func (l *VehicleLedger) DeleteDocument(carID, docID string) {
	l.deleteSub(carID, "document.deleted", docID, func(c *model.Car) bool {
		idx := slices.IndexFunc(c.Documents, func(d model.Document) bool { return d.ID == docID })
		if idx < 0 {
			return false
		}
		c.Documents = slices.Delete(c.Documents, idx, idx+1)
		return true
	})
}

// --- Fuel records ---

func (l *VehicleLedger) AddFuelRecord(carID string, rec model.FuelRecord) (model.FuelRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.FuelRecord{}, false
	}
	now := l.cfg.clock.Now()
	rec.ID = l.cfg.newID()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	// Derive the total instead of trusting the caller, so the invariant
	// totalCost = liters × costPerLiter cannot drift.
	if rec.TotalCost == 0 {
		rec.TotalCost = rec.Liters * rec.CostPerLiter
	}
	c.FuelRecords = append(c.FuelRecords, rec)
	c.UpdatedAt = now

	l.persistLocked()
	publish(&l.cfg, "fuel.created", rec.ID)
	return rec, true
}

func (l *VehicleLedger) UpdateFuelRecord(carID, recID string, patch model.FuelRecordPatch) (model.FuelRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.FuelRecord{}, false
	}
	for i := range c.FuelRecords {
		rec := &c.FuelRecords[i]
		if rec.ID != recID {
			continue
		}
		if patch.Date != nil {
			rec.Date = *patch.Date
		}
		if patch.Mileage != nil {
			rec.Mileage = *patch.Mileage
		}
		if patch.Liters != nil {
			rec.Liters = *patch.Liters
		}
		if patch.CostPerLiter != nil {
			rec.CostPerLiter = *patch.CostPerLiter
		}
		if patch.TotalCost != nil {
			rec.TotalCost = *patch.TotalCost
		}
		if patch.IsFullTank != nil {
			rec.IsFullTank = *patch.IsFullTank
		}
		if patch.FuelType != nil {
			rec.FuelType = *patch.FuelType
		}
		if patch.Station != nil {
			rec.Station = *patch.Station
		}
		if patch.TotalCost == nil && (patch.Liters != nil || patch.CostPerLiter != nil) {
			rec.TotalCost = rec.Liters * rec.CostPerLiter
		}
		rec.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "fuel.updated", rec.ID)
		return *rec, true
	}
	return model.FuelRecord{}, false
}

func (l *VehicleLedger) DeleteFuelRecord(carID, recID string) {
	l.deleteSub(carID, "fuel.deleted", recID, func(c *model.Car) bool {
		idx := slices.IndexFunc(c.FuelRecords, func(r model.FuelRecord) bool { return r.ID == recID })
		if idx < 0 {
			return false
		}
		c.FuelRecords = slices.Delete(c.FuelRecords, idx, idx+1)
		return true
	})
}

// --- Reminders ---

func (l *VehicleLedger) AddReminder(carID string, rem model.Reminder) (model.Reminder, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Reminder{}, false
	}
	now := l.cfg.clock.Now()
	rem.ID = l.cfg.newID()
	rem.IsActive = true
	rem.CompletedAt = nil
	rem.CreatedAt = now
	rem.UpdatedAt = now
	c.Reminders = append(c.Reminders, rem)
	c.UpdatedAt = now

	l.persistLocked()
	publish(&l.cfg, "reminder.created", rem.ID)
	return rem, true
}

func (l *VehicleLedger) UpdateReminder(carID, remID string, patch model.ReminderPatch) (model.Reminder, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Reminder{}, false
	}
	for i := range c.Reminders {
		rem := &c.Reminders[i]
		if rem.ID != remID {
			continue
		}
		if patch.Title != nil {
			rem.Title = *patch.Title
		}
		if patch.Description != nil {
			rem.Description = *patch.Description
		}
		if patch.IsActive != nil {
			rem.IsActive = *patch.IsActive
		}
		if patch.DueDate != nil {
			due := *patch.DueDate
			rem.DueDate = &due
		}
		if patch.DueMileage != nil {
			due := *patch.DueMileage
			rem.DueMileage = &due
		}
		rem.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "reminder.updated", rem.ID)
		return *rem, true
	}
	return model.Reminder{}, false
}

func (l *VehicleLedger) DeleteReminder(carID, remID string) {
	l.deleteSub(carID, "reminder.deleted", remID, func(c *model.Car) bool {
		idx := slices.IndexFunc(c.Reminders, func(r model.Reminder) bool { return r.ID == remID })
		if idx < 0 {
			return false
		}
		c.Reminders = slices.Delete(c.Reminders, idx, idx+1)
		return true
	})
}

// CompleteReminder deactivates the reminder and stamps CompletedAt once.
// Completing an already completed reminder changes nothing.
func (l *VehicleLedger) CompleteReminder(carID, remID string) (model.Reminder, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return model.Reminder{}, false
	}
	for i := range c.Reminders {
		rem := &c.Reminders[i]
		if rem.ID != remID {
			continue
		}
		if rem.CompletedAt != nil {
			return *rem, true
		}
		now := l.cfg.clock.Now()
		rem.IsActive = false
		rem.CompletedAt = &now
		rem.UpdatedAt = now

		l.persistLocked()
		publish(&l.cfg, "reminder.completed", rem.ID)
		return *rem, true
	}
	return model.Reminder{}, false
}

// --- internals ---

// find returns the live car entry; callers must hold the lock.
func (l *VehicleLedger) find(id string) *model.Car {
	for i := range l.cars {
		if l.cars[i].ID == id {
			return &l.cars[i]
		}
	}
	return nil
}

func (l *VehicleLedger) deleteSub(carID, event, id string, remove func(*model.Car) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.find(carID)
	if c == nil {
		return
	}
	// Removing a record that does not belong to this car is silently ignored.
	if !remove(c) {
		return
	}
	c.UpdatedAt = l.cfg.clock.Now()
	l.persistLocked()
	publish(&l.cfg, event, id)
}

// persistLocked serializes the current state and hands it to the persister.
// Marshalling happens under the lock so the snapshot is consistent; the actual
// write never blocks the caller.
func (l *VehicleLedger) persistLocked() {
	if l.persist == nil {
		return
	}
	data, err := json.Marshal(FleetSnapshot{Version: fleetSnapshotVersion, Cars: l.cars})
	if err != nil {
		l.cfg.log.Error().Err(err).Msg("encode fleet snapshot")
		return
	}
	l.persist.offer(data)
}

func cloneCar(c model.Car) model.Car {
	c.MaintenanceRecords = slices.Clone(c.MaintenanceRecords)
	c.Expenses = slices.Clone(c.Expenses)
	c.Documents = slices.Clone(c.Documents)
	c.FuelRecords = slices.Clone(c.FuelRecords)
	c.Reminders = slices.Clone(c.Reminders)
	return c
}
