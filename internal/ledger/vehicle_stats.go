package ledger

import (
	"sort"
	"time"

	"backend/internal/model"
)

const defaultDaysAhead = 30

// MaintenanceDue pairs a due maintenance record with the car it belongs to.
type MaintenanceDue struct {
	CarID  string                  `json:"car_id"`
	Record model.MaintenanceRecord `json:"record"`
}

// DocumentExpiry pairs an expiring document with its car.
type DocumentExpiry struct {
	CarID    string         `json:"car_id"`
	Document model.Document `json:"document"`
}

// ReminderEntry pairs a reminder with its car.
type ReminderEntry struct {
	CarID    string         `json:"car_id"`
	Reminder model.Reminder `json:"reminder"`
}

// CarStats recomputes the per-car aggregate from current state. An unknown id
// yields the zeroed default shape, not an error.
func (l *VehicleLedger) CarStats(carID string) model.CarStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c := l.find(carID)
	if c == nil {
		return model.CarStats{}
	}

	stats := model.CarStats{
		MaintenanceCount: len(c.MaintenanceRecords),
	}
	for _, e := range c.Expenses {
		stats.TotalExpenses += e.Amount
	}
	// Fuel and maintenance cost totals come from the dedicated collections,
	// not from expense categories, so there is a single source of truth for
	// each figure.
	for _, f := range c.FuelRecords {
		stats.TotalFuelCost += f.TotalCost
	}
	for _, m := range c.MaintenanceRecords {
		stats.TotalMaintenanceCost += m.Cost
	}

	stats.AvgFuelConsumption = avgConsumption(c.FuelRecords)

	if len(c.MaintenanceRecords) > 0 {
		maxMileage := c.MaintenanceRecords[0].Mileage
		for _, m := range c.MaintenanceRecords[1:] {
			if m.Mileage > maxMileage {
				maxMileage = m.Mileage
			}
		}
		km := c.CurrentMileage - maxMileage
		stats.KmSinceLastMaintenance = &km
	}

	if next := nextDue(c.MaintenanceRecords); next != nil {
		if next.NextDueDate != nil {
			d := *next.NextDueDate
			stats.NextMaintenanceDate = &d
		}
		if next.NextDueMileage != nil {
			m := *next.NextDueMileage
			stats.NextMaintenanceMileage = &m
		}
	}

	return stats
}

// FleetStats aggregates over active cars only.
func (l *VehicleLedger) FleetStats() model.FleetStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := today(l.cfg.clock)
	horizon := now.AddDate(0, 0, defaultDaysAhead)

	var stats model.FleetStats
	for i := range l.cars {
		c := &l.cars[i]
		if !c.IsActive {
			continue
		}
		stats.ActiveCars++
		for _, e := range c.Expenses {
			stats.TotalExpenses += e.Amount
		}
		for _, f := range c.FuelRecords {
			stats.TotalFuelCost += f.TotalCost
		}
		for _, m := range c.MaintenanceRecords {
			stats.TotalMaintenanceCost += m.Cost
		}

		attention := false
		for _, m := range c.MaintenanceRecords {
			if isOverdue(m, c.CurrentMileage, now) {
				attention = true
				break
			}
		}
		if !attention {
			for _, d := range c.Documents {
				if d.ExpiryDate != nil && !d.ExpiryDate.Before(now) && !d.ExpiryDate.After(horizon) {
					attention = true
					break
				}
			}
		}
		if attention {
			stats.CarsNeedingAttention++
		}
	}
	return stats
}

// OverdueMaintenance lists records past either due threshold. Pass an empty
// carID to scan the whole fleet. A mileage threshold, once crossed, keeps the
// record overdue on every call until its status becomes completed.
func (l *VehicleLedger) OverdueMaintenance(carID string) []MaintenanceDue {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := today(l.cfg.clock)
	out := []MaintenanceDue{}
	for i := range l.cars {
		c := &l.cars[i]
		if carID != "" && c.ID != carID {
			continue
		}
		for _, m := range c.MaintenanceRecords {
			if isOverdue(m, c.CurrentMileage, now) {
				out = append(out, MaintenanceDue{CarID: c.ID, Record: m})
			}
		}
	}
	return out
}

// UpcomingMaintenance lists records whose due date falls inside the window
// [today, today+daysAhead]. Only date thresholds count here: a mileage-only
// record never shows as upcoming, it goes straight to overdue once crossed.
func (l *VehicleLedger) UpcomingMaintenance(carID string, daysAhead int) []MaintenanceDue {
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	now := today(l.cfg.clock)
	horizon := now.AddDate(0, 0, daysAhead)
	out := []MaintenanceDue{}
	for i := range l.cars {
		c := &l.cars[i]
		if carID != "" && c.ID != carID {
			continue
		}
		for _, m := range c.MaintenanceRecords {
			if m.Status == model.MaintenanceCompleted || m.NextDueDate == nil {
				continue
			}
			if !m.NextDueDate.Before(now) && !m.NextDueDate.After(horizon) {
				out = append(out, MaintenanceDue{CarID: c.ID, Record: m})
			}
		}
	}
	return out
}

// ExpiringDocuments lists documents whose expiry date falls inside the window
// [today, today+daysAhead].
func (l *VehicleLedger) ExpiringDocuments(carID string, daysAhead int) []DocumentExpiry {
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	now := today(l.cfg.clock)
	horizon := now.AddDate(0, 0, daysAhead)
	out := []DocumentExpiry{}
	for i := range l.cars {
		c := &l.cars[i]
		if carID != "" && c.ID != carID {
			continue
		}
		for _, d := range c.Documents {
			if d.ExpiryDate == nil {
				continue
			}
			if !d.ExpiryDate.Before(now) && !d.ExpiryDate.After(horizon) {
				out = append(out, DocumentExpiry{CarID: c.ID, Document: d})
			}
		}
	}
	return out
}

// ActiveReminders lists reminders with IsActive set, fleet-wide or per car.
func (l *VehicleLedger) ActiveReminders(carID string) []ReminderEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []ReminderEntry{}
	for i := range l.cars {
		c := &l.cars[i]
		if carID != "" && c.ID != carID {
			continue
		}
		for _, r := range c.Reminders {
			if r.IsActive {
				out = append(out, ReminderEntry{CarID: c.ID, Reminder: r})
			}
		}
	}
	return out
}

// FuelEfficiency returns the average consumption in liters/100km, or nil when
// fewer than two full-tank records (or no positive mileage delta) exist.
func (l *VehicleLedger) FuelEfficiency(carID string) *float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c := l.find(carID)
	if c == nil {
		return nil
	}
	return avgConsumption(c.FuelRecords)
}

// FuelTrends buckets fuel spending by calendar month over the trailing window
// and derives a per-month consumption from the full-tank samples that close
// inside each month.
func (l *VehicleLedger) FuelTrends(carID string, months int) []model.FuelTrendPoint {
	if months <= 0 {
		months = 12
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	c := l.find(carID)
	if c == nil {
		return []model.FuelTrendPoint{}
	}

	now := l.cfg.clock.Now()
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	type bucket struct {
		cost    float64
		liters  float64
		samples []float64
	}
	buckets := map[string]*bucket{}
	get := func(month string) *bucket {
		b, ok := buckets[month]
		if !ok {
			b = &bucket{}
			buckets[month] = b
		}
		return b
	}

	for _, f := range c.FuelRecords {
		if f.Date.Before(cutoff) {
			continue
		}
		b := get(f.Date.Format("2006-01"))
		b.cost += f.TotalCost
		b.liters += f.Liters
	}

	// A consumption sample belongs to the month of the fill that closes the
	// full-tank interval.
	for _, s := range consumptionSamples(c.FuelRecords) {
		if s.date.Before(cutoff) {
			continue
		}
		b := get(s.date.Format("2006-01"))
		b.samples = append(b.samples, s.value)
	}

	monthsKeys := make([]string, 0, len(buckets))
	for m := range buckets {
		monthsKeys = append(monthsKeys, m)
	}
	sort.Strings(monthsKeys)

	out := make([]model.FuelTrendPoint, 0, len(monthsKeys))
	for _, m := range monthsKeys {
		b := buckets[m]
		point := model.FuelTrendPoint{Month: m, TotalCost: b.cost, Liters: b.liters}
		if len(b.samples) > 0 {
			sum := 0.0
			for _, v := range b.samples {
				sum += v
			}
			avg := sum / float64(len(b.samples))
			point.Consumption = &avg
		}
		out = append(out, point)
	}
	return out
}

// --- helpers ---

func isOverdue(m model.MaintenanceRecord, currentMileage float64, now time.Time) bool {
	if m.Status == model.MaintenanceCompleted {
		return false
	}
	if m.NextDueDate != nil && m.NextDueDate.Before(now) {
		return true
	}
	if m.NextDueMileage != nil && currentMileage >= *m.NextDueMileage {
		return true
	}
	return false
}

type consumptionSample struct {
	value float64
	date  time.Time
}

// consumptionSamples derives liters/100km samples from consecutive full-tank
// records sorted by mileage. Pairs without a positive mileage delta are
// skipped, so the result never contains a division by zero or a negative.
func consumptionSamples(records []model.FuelRecord) []consumptionSample {
	full := make([]model.FuelRecord, 0, len(records))
	for _, f := range records {
		if f.IsFullTank {
			full = append(full, f)
		}
	}
	if len(full) < 2 {
		return nil
	}
	sort.SliceStable(full, func(i, j int) bool { return full[i].Mileage < full[j].Mileage })

	var samples []consumptionSample
	for i := 1; i < len(full); i++ {
		delta := full[i].Mileage - full[i-1].Mileage
		if delta <= 0 {
			continue
		}
		samples = append(samples, consumptionSample{
			value: full[i].Liters / delta * 100,
			date:  full[i].Date,
		})
	}
	return samples
}

func avgConsumption(records []model.FuelRecord) *float64 {
	samples := consumptionSamples(records)
	if len(samples) == 0 {
		return nil
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.value
	}
	avg := sum / float64(len(samples))
	return &avg
}

// nextDue picks the maintenance record due soonest among those carrying a due
// threshold: records with dates sort by date, date-less ones by mileage after
// the dated ones, ties keep insertion order.
func nextDue(records []model.MaintenanceRecord) *model.MaintenanceRecord {
	candidates := make([]model.MaintenanceRecord, 0, len(records))
	for _, m := range records {
		if m.NextDueDate != nil || m.NextDueMileage != nil {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.NextDueDate != nil && b.NextDueDate != nil:
			return a.NextDueDate.Before(*b.NextDueDate)
		case a.NextDueDate != nil:
			return true
		case b.NextDueDate != nil:
			return false
		default:
			return *a.NextDueMileage < *b.NextDueMileage
		}
	})
	return &candidates[0]
}
