package ledger

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestFleet(t *testing.T, clock Clock) *VehicleLedger {
	t.Helper()
	if clock == nil {
		clock = newFakeClock(baseTime)
	}
	l, err := NewVehicleLedger(context.Background(), nil,
		WithClock(clock), WithIDFunc(seqIDs("id")))
	require.NoError(t, err)
	return l
}

func addCar(t *testing.T, l *VehicleLedger) model.Car {
	t.Helper()
	return l.AddCar(model.Car{Make: "Fiat", Model: "Panda", Year: 2019, IsActive: true})
}

func TestAddCarMintsIdentityAndCollections(t *testing.T) {
	l := newTestFleet(t, nil)

	car := l.AddCar(model.Car{Make: "Fiat", Model: "Panda", Year: 2019, IsActive: true})

	assert.Equal(t, "id-1", car.ID)
	assert.Equal(t, baseTime, car.CreatedAt)
	assert.Equal(t, baseTime, car.UpdatedAt)
	assert.NotNil(t, car.MaintenanceRecords)
	assert.NotNil(t, car.Expenses)
	assert.NotNil(t, car.Documents)
	assert.NotNil(t, car.FuelRecords)
	assert.NotNil(t, car.Reminders)

	got, ok := l.GetCar(car.ID)
	require.True(t, ok)
	assert.Equal(t, "Panda", got.Model)
}

func TestGetCarUnknown(t *testing.T) {
	l := newTestFleet(t, nil)
	_, ok := l.GetCar("nope")
	assert.False(t, ok)
}

func TestUpdateCarMergePatch(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	got, ok := l.UpdateCar(car.ID, model.CarPatch{Make: ptr("Alfa Romeo")})
	require.True(t, ok)

	// Only the patched field changes.
	assert.Equal(t, "Alfa Romeo", got.Make)
	assert.Equal(t, "Panda", got.Model)
	assert.Equal(t, 2019, got.Year)

	_, ok = l.UpdateCar("nope", model.CarPatch{Make: ptr("x")})
	assert.False(t, ok)
}

func TestDeleteCarCascades(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)
	_, ok := l.AddExpense(car.ID, model.Expense{Amount: 50, Category: model.ExpenseParking})
	require.True(t, ok)
	_, ok = l.AddMaintenance(car.ID, model.MaintenanceRecord{Cost: 200, Type: model.MaintenanceRoutine, Status: model.MaintenanceCompleted})
	require.True(t, ok)

	l.DeleteCar(car.ID)

	_, found := l.GetCar(car.ID)
	assert.False(t, found)
	assert.Empty(t, l.ListCars())
	// Nested records died with the car.
	assert.Equal(t, model.CarStats{}, l.CarStats(car.ID))
	assert.Empty(t, l.OverdueMaintenance(car.ID))
}

func TestDeleteCarUnknownIsNoOp(t *testing.T) {
	l := newTestFleet(t, nil)
	addCar(t, l)
	l.DeleteCar("nope")
	assert.Len(t, l.ListCars(), 1)
}

func TestUpdateMileage(t *testing.T) {
	clock := newFakeClock(baseTime)
	l := newTestFleet(t, clock)
	car := addCar(t, l)

	got, ok := l.UpdateMileage(car.ID, 12000)
	require.True(t, ok)
	assert.Equal(t, 12000.0, got.CurrentMileage)
	assert.Equal(t, baseTime, got.LastUpdatedMileage)

	// A lower reading is accepted; corrections are legitimate.
	got, ok = l.UpdateMileage(car.ID, 11000)
	require.True(t, ok)
	assert.Equal(t, 11000.0, got.CurrentMileage)

	_, ok = l.UpdateMileage("nope", 1)
	assert.False(t, ok)
}

func TestMaintenanceLifecycle(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	rec, ok := l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Cost:   120,
		Type:   model.MaintenanceRoutine,
		Status: model.MaintenanceScheduled,
	})
	require.True(t, ok)
	assert.NotEmpty(t, rec.ID)

	updated, ok := l.UpdateMaintenance(car.ID, rec.ID, model.MaintenancePatch{
		Status: ptr(model.MaintenanceCompleted),
		Cost:   ptr(150.0),
	})
	require.True(t, ok)
	assert.Equal(t, model.MaintenanceCompleted, updated.Status)
	assert.Equal(t, 150.0, updated.Cost)
	assert.Equal(t, model.MaintenanceRoutine, updated.Type)

	_, ok = l.UpdateMaintenance(car.ID, "nope", model.MaintenancePatch{})
	assert.False(t, ok)

	l.DeleteMaintenance(car.ID, rec.ID)
	got, _ := l.GetCar(car.ID)
	assert.Empty(t, got.MaintenanceRecords)
}

func TestFuelRecordDerivesTotalCost(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	rec, ok := l.AddFuelRecord(car.ID, model.FuelRecord{Liters: 40, CostPerLiter: 1.5})
	require.True(t, ok)
	assert.Equal(t, 60.0, rec.TotalCost)

	// An explicit total wins over the derivation.
	explicit, ok := l.AddFuelRecord(car.ID, model.FuelRecord{Liters: 40, CostPerLiter: 1.5, TotalCost: 59.5})
	require.True(t, ok)
	assert.Equal(t, 59.5, explicit.TotalCost)

	// Patching liters without a total re-derives it.
	patched, ok := l.UpdateFuelRecord(car.ID, rec.ID, model.FuelRecordPatch{Liters: ptr(50.0)})
	require.True(t, ok)
	assert.Equal(t, 75.0, patched.TotalCost)

	// Patching the total directly keeps the given value.
	patched, ok = l.UpdateFuelRecord(car.ID, rec.ID, model.FuelRecordPatch{TotalCost: ptr(70.0)})
	require.True(t, ok)
	assert.Equal(t, 70.0, patched.TotalCost)
}

func TestFuelEfficiency(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	assert.Nil(t, l.FuelEfficiency(car.ID))
	assert.Nil(t, l.FuelEfficiency("nope"))

	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1000, Liters: 38, IsFullTank: true})
	// One full tank is not enough for a delta.
	assert.Nil(t, l.FuelEfficiency(car.ID))

	// Partial fills never contribute samples.
	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1200, Liters: 15, IsFullTank: false})

	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1500, Liters: 40, IsFullTank: true})
	got := l.FuelEfficiency(car.ID)
	require.NotNil(t, got)
	// 40 liters over 500 km.
	assert.InDelta(t, 8.0, *got, 1e-9)
}

func TestFuelEfficiencySkipsZeroDelta(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1000, Liters: 40, IsFullTank: true})
	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1000, Liters: 42, IsFullTank: true})

	assert.Nil(t, l.FuelEfficiency(car.ID))
}

func TestCompleteReminderIdempotent(t *testing.T) {
	clock := newFakeClock(baseTime)
	l := newTestFleet(t, clock)
	car := addCar(t, l)
	rem, ok := l.AddReminder(car.ID, model.Reminder{Title: "swap winter tires"})
	require.True(t, ok)
	assert.True(t, rem.IsActive)

	done, ok := l.CompleteReminder(car.ID, rem.ID)
	require.True(t, ok)
	require.NotNil(t, done.CompletedAt)
	assert.False(t, done.IsActive)
	first := *done.CompletedAt

	clock.Advance(48 * time.Hour)
	again, ok := l.CompleteReminder(car.ID, rem.ID)
	require.True(t, ok)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, first, *again.CompletedAt)

	_, ok = l.CompleteReminder(car.ID, "nope")
	assert.False(t, ok)
}

func TestOverdueMaintenance(t *testing.T) {
	clock := newFakeClock(baseTime)
	l := newTestFleet(t, clock)
	car := addCar(t, l)
	l.UpdateMileage(car.ID, 15000)

	yesterday := baseTime.AddDate(0, 0, -1)
	nextWeek := baseTime.AddDate(0, 0, 7)

	pastDate, _ := l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Status: model.MaintenanceScheduled, NextDueDate: &yesterday,
	})
	l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Status: model.MaintenanceScheduled, NextDueDate: &nextWeek,
	})
	crossedMileage, _ := l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Status: model.MaintenanceScheduled, NextDueMileage: ptr(10000.0),
	})
	l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Status: model.MaintenanceCompleted, NextDueDate: &yesterday,
	})

	due := l.OverdueMaintenance(car.ID)
	require.Len(t, due, 2)
	assert.Equal(t, pastDate.ID, due[0].Record.ID)
	assert.Equal(t, crossedMileage.ID, due[1].Record.ID)

	// A crossed mileage threshold keeps the record overdue on every later
	// call until someone completes it.
	clock.Advance(30 * 24 * time.Hour)
	assert.Len(t, l.OverdueMaintenance(car.ID), 3) // nextWeek's date has now passed too

	l.UpdateMaintenance(car.ID, crossedMileage.ID, model.MaintenancePatch{Status: ptr(model.MaintenanceCompleted)})
	assert.Len(t, l.OverdueMaintenance(car.ID), 2)

	// Empty car id scans the whole fleet.
	assert.Len(t, l.OverdueMaintenance(""), 2)
}

func TestUpcomingMaintenance(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)
	l.UpdateMileage(car.ID, 15000)

	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	inWindow := today.AddDate(0, 0, 10)
	atEdge := today.AddDate(0, 0, 30)
	beyond := today.AddDate(0, 0, 31)
	past := today.AddDate(0, 0, -1)

	a, _ := l.AddMaintenance(car.ID, model.MaintenanceRecord{Status: model.MaintenanceScheduled, NextDueDate: &inWindow})
	b, _ := l.AddMaintenance(car.ID, model.MaintenanceRecord{Status: model.MaintenanceScheduled, NextDueDate: &atEdge})
	l.AddMaintenance(car.ID, model.MaintenanceRecord{Status: model.MaintenanceScheduled, NextDueDate: &beyond})
	l.AddMaintenance(car.ID, model.MaintenanceRecord{Status: model.MaintenanceScheduled, NextDueDate: &past})
	l.AddMaintenance(car.ID, model.MaintenanceRecord{Status: model.MaintenanceCompleted, NextDueDate: &inWindow})
	// Mileage-only records never show as upcoming, even when nearly crossed.
	l.AddMaintenance(car.ID, model.MaintenanceRecord{Status: model.MaintenanceScheduled, NextDueMileage: ptr(15100.0)})

	got := l.UpcomingMaintenance(car.ID, 30)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].Record.ID)
	assert.Equal(t, b.ID, got[1].Record.ID)

	// Zero falls back to the 30-day default.
	assert.Len(t, l.UpcomingMaintenance(car.ID, 0), 2)
	assert.Len(t, l.UpcomingMaintenance(car.ID, 5), 0)
}

func TestExpiringDocuments(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	soon := today.AddDate(0, 0, 14)
	far := today.AddDate(0, 0, 90)

	insurance, _ := l.AddDocument(car.ID, model.Document{Name: "RCA", Type: model.DocInsurance, ExpiryDate: &soon})
	l.AddDocument(car.ID, model.Document{Name: "Warranty", Type: model.DocWarranty, ExpiryDate: &far})
	l.AddDocument(car.ID, model.Document{Name: "Registration", Type: model.DocRegistration})

	got := l.ExpiringDocuments("", 30)
	require.Len(t, got, 1)
	assert.Equal(t, insurance.ID, got[0].Document.ID)
	assert.Equal(t, car.ID, got[0].CarID)

	assert.Len(t, l.ExpiringDocuments(car.ID, 120), 2)
}

func TestActiveReminders(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	active, _ := l.AddReminder(car.ID, model.Reminder{Title: "oil check"})
	done, _ := l.AddReminder(car.ID, model.Reminder{Title: "wash"})
	l.CompleteReminder(car.ID, done.ID)

	got := l.ActiveReminders("")
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].Reminder.ID)
}

func TestCarStats(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)
	l.UpdateMileage(car.ID, 1500)

	l.AddExpense(car.ID, model.Expense{Amount: 100, Category: model.ExpenseInsurance})
	l.AddExpense(car.ID, model.Expense{Amount: 50, Category: model.ExpenseParking})
	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1000, Liters: 40, CostPerLiter: 1.5, IsFullTank: true})
	l.AddFuelRecord(car.ID, model.FuelRecord{Mileage: 1500, Liters: 40, CostPerLiter: 1.5, IsFullTank: true})

	nextMonth := baseTime.AddDate(0, 1, 0)
	l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Mileage: 1200, Cost: 200, Status: model.MaintenanceCompleted,
		NextDueDate: &nextMonth,
	})
	l.AddMaintenance(car.ID, model.MaintenanceRecord{
		Mileage: 800, Cost: 80, Status: model.MaintenanceCompleted,
		NextDueMileage: ptr(2000.0),
	})

	stats := l.CarStats(car.ID)
	assert.Equal(t, 150.0, stats.TotalExpenses)
	assert.Equal(t, 120.0, stats.TotalFuelCost)
	assert.Equal(t, 280.0, stats.TotalMaintenanceCost)
	assert.Equal(t, 2, stats.MaintenanceCount)

	require.NotNil(t, stats.AvgFuelConsumption)
	assert.InDelta(t, 8.0, *stats.AvgFuelConsumption, 1e-9)

	require.NotNil(t, stats.KmSinceLastMaintenance)
	assert.Equal(t, 300.0, *stats.KmSinceLastMaintenance)

	// A dated record beats a mileage-only one for "next due".
	require.NotNil(t, stats.NextMaintenanceDate)
	assert.Equal(t, nextMonth, *stats.NextMaintenanceDate)
	assert.Nil(t, stats.NextMaintenanceMileage)
}

func TestFleetStats(t *testing.T) {
	l := newTestFleet(t, nil)

	active := addCar(t, l)
	l.UpdateMileage(active.ID, 15000)
	l.AddExpense(active.ID, model.Expense{Amount: 100})
	l.AddMaintenance(active.ID, model.MaintenanceRecord{
		Cost: 50, Status: model.MaintenanceScheduled, NextDueMileage: ptr(10000.0),
	})

	clean := addCar(t, l)
	l.AddExpense(clean.ID, model.Expense{Amount: 30})

	retired := l.AddCar(model.Car{Make: "Lancia", Model: "Delta", IsActive: false})
	l.AddExpense(retired.ID, model.Expense{Amount: 9999})

	stats := l.FleetStats()
	assert.Equal(t, 2, stats.ActiveCars)
	assert.Equal(t, 130.0, stats.TotalExpenses)
	assert.Equal(t, 50.0, stats.TotalMaintenanceCost)
	assert.Equal(t, 1, stats.CarsNeedingAttention)
}

func TestFuelTrends(t *testing.T) {
	l := newTestFleet(t, nil)
	car := addCar(t, l)

	may := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	june := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	january := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	// Outside the 3-month window, must not appear.
	l.AddFuelRecord(car.ID, model.FuelRecord{Date: january, Mileage: 100, Liters: 30, CostPerLiter: 2})
	l.AddFuelRecord(car.ID, model.FuelRecord{Date: may, Mileage: 1000, Liters: 40, CostPerLiter: 1.5, IsFullTank: true})
	l.AddFuelRecord(car.ID, model.FuelRecord{Date: june, Mileage: 1500, Liters: 40, CostPerLiter: 1.5, IsFullTank: true})

	points := l.FuelTrends(car.ID, 3)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-05", points[0].Month)
	assert.Equal(t, 60.0, points[0].TotalCost)
	assert.Equal(t, 40.0, points[0].Liters)
	// The May fill opens the interval; the sample lands on the closing month.
	assert.Nil(t, points[0].Consumption)

	assert.Equal(t, "2025-06", points[1].Month)
	assert.Equal(t, 60.0, points[1].TotalCost)
	require.NotNil(t, points[1].Consumption)
	assert.InDelta(t, 8.0, *points[1].Consumption, 1e-9)

	assert.Empty(t, l.FuelTrends("nope", 3))
}

func TestSubRecordOpsOnUnknownCar(t *testing.T) {
	l := newTestFleet(t, nil)

	_, ok := l.AddMaintenance("nope", model.MaintenanceRecord{})
	assert.False(t, ok)
	_, ok = l.AddExpense("nope", model.Expense{})
	assert.False(t, ok)
	_, ok = l.AddDocument("nope", model.Document{})
	assert.False(t, ok)
	_, ok = l.AddFuelRecord("nope", model.FuelRecord{})
	assert.False(t, ok)
	_, ok = l.AddReminder("nope", model.Reminder{})
	assert.False(t, ok)

	// Deletes against unknown ids are silent no-ops.
	l.DeleteMaintenance("nope", "x")
	l.DeleteExpense("nope", "x")
	l.DeleteDocument("nope", "x")
	l.DeleteFuelRecord("nope", "x")
	l.DeleteReminder("nope", "x")
}
