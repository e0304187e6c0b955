package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// ErrCustomerHasInvoices rejects deleting a customer who still has invoices
// that are neither paid nor cancelled.
var ErrCustomerHasInvoices = fmt.Errorf("customer has outstanding invoices")

// InvoiceLedger owns customers, invoices, and templates, plus the numbering
// counter. Totals are always recomputed from the item lines; caller-supplied
// totals are discarded. The counter is instance state, not a package global,
// so independent ledgers never share a sequence.
type InvoiceLedger struct {
	cfg config

	mu         sync.RWMutex
	customers  []model.Customer
	invoices   []model.Invoice
	templates  []model.InvoiceTemplate
	nextNumber int

	persist *persister
}

// NewInvoiceLedger loads the invoicing snapshot from the store (empty state
// when none exists) and starts the background persister.
func NewInvoiceLedger(ctx context.Context, store BlobStore, opts ...Option) (*InvoiceLedger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &InvoiceLedger{
		cfg:        cfg,
		customers:  []model.Customer{},
		invoices:   []model.Invoice{},
		templates:  []model.InvoiceTemplate{},
		nextNumber: 1,
	}

	if store != nil {
		data, err := store.Load(ctx, InvoicingKey)
		if err != nil {
			return nil, fmt.Errorf("load invoicing snapshot: %w", err)
		}
		if data != nil {
			snap, err := decodeInvoicingSnapshot(data)
			if err != nil {
				return nil, err
			}
			l.customers = snap.Customers
			l.invoices = snap.Invoices
			l.templates = snap.Templates
			l.nextNumber = snap.NextInvoiceNumber
		}
		l.persist = newPersister(store, InvoicingKey, cfg.log)
	}

	return l, nil
}

// Close flushes pending persistence work.
func (l *InvoiceLedger) Close() {
	if l.persist != nil {
		l.persist.Close()
	}
}

// --- Customers ---

func (l *InvoiceLedger) AddCustomer(c model.Customer) model.Customer {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.clock.Now()
	c.ID = l.cfg.newID()
	c.CreatedAt = now
	c.UpdatedAt = now
	l.customers = append(l.customers, c)

	l.persistLocked()
	publish(&l.cfg, "customer.created", c.ID)
	return c
}

func (l *InvoiceLedger) GetCustomer(id string) (model.Customer, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.customers {
		if c.ID == id {
			return c, true
		}
	}
	return model.Customer{}, false
}

func (l *InvoiceLedger) ListCustomers() []model.Customer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.customers)
}

func (l *InvoiceLedger) UpdateCustomer(id string, patch model.CustomerPatch) (model.Customer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.customers {
		c := &l.customers[i]
		if c.ID != id {
			continue
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.IsCompany != nil {
			c.IsCompany = *patch.IsCompany
		}
		if patch.Email != nil {
			c.Email = *patch.Email
		}
		if patch.Phone != nil {
			c.Phone = *patch.Phone
		}
		if patch.Address != nil {
			c.Address = *patch.Address
		}
		if patch.VATNumber != nil {
			c.VATNumber = *patch.VATNumber
		}
		if patch.FiscalCode != nil {
			c.FiscalCode = *patch.FiscalCode
		}
		if patch.Notes != nil {
			c.Notes = *patch.Notes
		}
		c.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "customer.updated", c.ID)
		return *c, true
	}
	return model.Customer{}, false
}

// DeleteCustomer removes the customer. Issued invoices keep their denormalized
// snapshot and are left in place, but deletion is refused while the customer
// still has invoices that are neither paid nor cancelled. Unknown ids are a
// no-op.
func (l *InvoiceLedger) DeleteCustomer(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.customers, func(c model.Customer) bool { return c.ID == id })
	if idx < 0 {
		return nil
	}
	for _, inv := range l.invoices {
		if inv.CustomerID == id && inv.Status != model.StatusPaid && inv.Status != model.StatusCancelled {
			return ErrCustomerHasInvoices
		}
	}
	l.customers = slices.Delete(l.customers, idx, idx+1)

	l.persistLocked()
	publish(&l.cfg, "customer.deleted", id)
	return nil
}

// --- Invoices ---

// AddInvoice mints id and number, snapshots the customer's contact fields, and
// recomputes the derived totals from the items.
func (l *InvoiceLedger) AddInvoice(inv model.Invoice) (model.Invoice, error) {
	if err := validateItems(inv.Items); err != nil {
		return model.Invoice{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.clock.Now()
	inv.ID = l.cfg.newID()
	inv.Number = fmt.Sprintf("FAT-%d-%03d", now.Year(), l.nextNumber)
	l.nextNumber++

	if inv.Status == "" {
		inv.Status = model.StatusDraft
	}
	if inv.Type == "" {
		inv.Type = model.InvoiceCustomer
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}

	// Denormalized snapshot: copy the customer's contact fields now so later
	// customer edits never retroactively alter this invoice.
	if inv.CustomerID != "" {
		for _, c := range l.customers {
			if c.ID == inv.CustomerID {
				inv.CustomerName = c.Name
				inv.CustomerEmail = c.Email
				inv.CustomerAddress = c.Address
				inv.CustomerVATNumber = c.VATNumber
				inv.CustomerFiscalCode = c.FiscalCode
				break
			}
		}
	}

	inv.Items = normalizeItems(inv.Items, l.cfg.newID)
	inv.InvoiceTotals = CalculateInvoiceTotals(inv.Items)
	inv.CreatedAt = now
	inv.UpdatedAt = now

	l.invoices = append(l.invoices, inv)
	l.persistLocked()
	publish(&l.cfg, "invoice.created", inv.ID)
	return inv, nil
}

func (l *InvoiceLedger) GetInvoice(id string) (model.Invoice, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, inv := range l.invoices {
		if inv.ID == id {
			inv.Items = slices.Clone(inv.Items)
			return inv, true
		}
	}
	return model.Invoice{}, false
}

func (l *InvoiceLedger) ListInvoices() []model.Invoice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Invoice, len(l.invoices))
	for i, inv := range l.invoices {
		inv.Items = slices.Clone(inv.Items)
		out[i] = inv
	}
	return out
}

func (l *InvoiceLedger) InvoicesByCustomer(customerID string) []model.Invoice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []model.Invoice{}
	for _, inv := range l.invoices {
		if inv.CustomerID == customerID {
			inv.Items = slices.Clone(inv.Items)
			out = append(out, inv)
		}
	}
	return out
}

// InvoicesByRepair returns the invoices issued for a specific workshop job.
func (l *InvoiceLedger) InvoicesByRepair(carID, repairID string) []model.Invoice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []model.Invoice{}
	for _, inv := range l.invoices {
		if inv.CarID == carID && inv.RepairID == repairID {
			inv.Items = slices.Clone(inv.Items)
			out = append(out, inv)
		}
	}
	return out
}

// UpdateInvoice applies a merge-patch. A non-nil Items slice replaces the
// lines and triggers a full recomputation of the derived totals.
func (l *InvoiceLedger) UpdateInvoice(id string, patch model.InvoicePatch) (model.Invoice, bool, error) {
	if patch.Items != nil {
		if err := validateItems(patch.Items); err != nil {
			return model.Invoice{}, false, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.invoices {
		inv := &l.invoices[i]
		if inv.ID != id {
			continue
		}
		if patch.Type != nil {
			inv.Type = *patch.Type
		}
		if patch.IssueDate != nil {
			inv.IssueDate = *patch.IssueDate
		}
		if patch.DueDate != nil {
			inv.DueDate = *patch.DueDate
		}
		if patch.CarID != nil {
			inv.CarID = *patch.CarID
		}
		if patch.RepairID != nil {
			inv.RepairID = *patch.RepairID
		}
		if patch.Notes != nil {
			inv.Notes = *patch.Notes
		}
		if patch.Items != nil {
			inv.Items = normalizeItems(patch.Items, l.cfg.newID)
			inv.InvoiceTotals = CalculateInvoiceTotals(inv.Items)
		}
		inv.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "invoice.updated", inv.ID)
		return *inv, true, nil
	}
	return model.Invoice{}, false, nil
}

// UpdateInvoiceStatus sets the stored status. Moving to paid stamps PaidDate
// with the given value or today; moving away from paid leaves PaidDate as it
// was.
func (l *InvoiceLedger) UpdateInvoiceStatus(id string, status model.InvoiceStatus, paidDate *time.Time) (model.Invoice, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.invoices {
		inv := &l.invoices[i]
		if inv.ID != id {
			continue
		}
		inv.Status = status
		if status == model.StatusPaid {
			if paidDate != nil {
				d := *paidDate
				inv.PaidDate = &d
			} else {
				d := l.cfg.clock.Now()
				inv.PaidDate = &d
			}
		}
		inv.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "invoice.updated", inv.ID)
		return *inv, true
	}
	return model.Invoice{}, false
}

func (l *InvoiceLedger) DeleteInvoice(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.invoices, func(inv model.Invoice) bool { return inv.ID == id })
	if idx < 0 {
		return
	}
	l.invoices = slices.Delete(l.invoices, idx, idx+1)
	l.persistLocked()
	publish(&l.cfg, "invoice.deleted", id)
}

// --- Templates ---

func (l *InvoiceLedger) AddTemplate(t model.InvoiceTemplate) model.InvoiceTemplate {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.clock.Now()
	t.ID = l.cfg.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Items == nil {
		t.Items = []model.TemplateItem{}
	}
	l.templates = append(l.templates, t)

	l.persistLocked()
	publish(&l.cfg, "template.created", t.ID)
	return t
}

func (l *InvoiceLedger) GetTemplate(id string) (model.InvoiceTemplate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.templates {
		if t.ID == id {
			t.Items = slices.Clone(t.Items)
			return t, true
		}
	}
	return model.InvoiceTemplate{}, false
}

func (l *InvoiceLedger) ListTemplates() []model.InvoiceTemplate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.InvoiceTemplate, len(l.templates))
	for i, t := range l.templates {
		t.Items = slices.Clone(t.Items)
		out[i] = t
	}
	return out
}

func (l *InvoiceLedger) UpdateTemplate(id string, patch model.TemplatePatch) (model.InvoiceTemplate, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.templates {
		t := &l.templates[i]
		if t.ID != id {
			continue
		}
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Items != nil {
			t.Items = slices.Clone(patch.Items)
		}
		t.UpdatedAt = l.cfg.clock.Now()

		l.persistLocked()
		publish(&l.cfg, "template.updated", t.ID)
		return *t, true
	}
	return model.InvoiceTemplate{}, false
}

func (l *InvoiceLedger) DeleteTemplate(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.templates, func(t model.InvoiceTemplate) bool { return t.ID == id })
	if idx < 0 {
		return
	}
	l.templates = slices.Delete(l.templates, idx, idx+1)
	l.persistLocked()
	publish(&l.cfg, "template.deleted", id)
}

// InvoiceFromTemplate seeds a new invoice's lines from a template and creates
// it through the normal AddInvoice path.
func (l *InvoiceLedger) InvoiceFromTemplate(templateID string, inv model.Invoice) (model.Invoice, error) {
	tpl, ok := l.GetTemplate(templateID)
	if !ok {
		return model.Invoice{}, fmt.Errorf("template %s not found", templateID)
	}
	items := make([]model.InvoiceItem, len(tpl.Items))
	for i, ti := range tpl.Items {
		items[i] = model.InvoiceItem{
			Description: ti.Description,
			Quantity:    ti.Quantity,
			UnitPrice:   ti.UnitPrice,
			VATRate:     ti.VATRate,
			Discount:    ti.Discount,
		}
	}
	inv.Items = items
	return l.AddInvoice(inv)
}

// --- Statistics ---

// Stats recomputes the revenue summary. Overdue here is a view over sent
// invoices past their due date; the stored status only changes when a caller
// asks for it explicitly.
func (l *InvoiceLedger) Stats() model.InvoiceStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := today(l.cfg.clock)
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)

	stats := model.InvoiceStats{
		TotalRevenue:     decimal.Zero,
		PendingAmount:    decimal.Zero,
		OverdueAmount:    decimal.Zero,
		ThisMonthRevenue: decimal.Zero,
		LastMonthRevenue: decimal.Zero,
		InvoiceCount:     len(l.invoices),
	}

	for _, inv := range l.invoices {
		switch inv.Status {
		case model.StatusPaid:
			stats.PaidCount++
			stats.TotalRevenue = stats.TotalRevenue.Add(inv.TotalAmount)

			// Month buckets use the payment date, falling back to the issue
			// date when the payment date was never stamped.
			bucket := inv.IssueDate
			if inv.PaidDate != nil {
				bucket = *inv.PaidDate
			}
			switch {
			case bucket.Year() == thisMonth.Year() && bucket.Month() == thisMonth.Month():
				stats.ThisMonthRevenue = stats.ThisMonthRevenue.Add(inv.TotalAmount)
			case bucket.Year() == lastMonth.Year() && bucket.Month() == lastMonth.Month():
				stats.LastMonthRevenue = stats.LastMonthRevenue.Add(inv.TotalAmount)
			}
		case model.StatusSent:
			stats.PendingAmount = stats.PendingAmount.Add(inv.TotalAmount)
			if inv.DueDate.Before(now) {
				stats.OverdueAmount = stats.OverdueAmount.Add(inv.TotalAmount)
			}
		}
	}
	return stats
}

// persistLocked serializes the current state and hands it to the persister.
func (l *InvoiceLedger) persistLocked() {
	if l.persist == nil {
		return
	}
	data, err := json.Marshal(InvoicingSnapshot{
		Version:           invoicingSnapshotVersion,
		Customers:         l.customers,
		Invoices:          l.invoices,
		Templates:         l.templates,
		NextInvoiceNumber: l.nextNumber,
	})
	if err != nil {
		l.cfg.log.Error().Err(err).Msg("encode invoicing snapshot")
		return
	}
	l.persist.offer(data)
}
