package ledger

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoicing(t *testing.T, clock Clock) *InvoiceLedger {
	t.Helper()
	if clock == nil {
		clock = newFakeClock(baseTime)
	}
	l, err := NewInvoiceLedger(context.Background(), nil,
		WithClock(clock), WithIDFunc(seqIDs("id")))
	require.NoError(t, err)
	return l
}

func TestInvoiceNumbering(t *testing.T) {
	l := newTestInvoicing(t, nil)

	first, err := l.AddInvoice(model.Invoice{})
	require.NoError(t, err)
	second, err := l.AddInvoice(model.Invoice{})
	require.NoError(t, err)

	assert.Equal(t, "FAT-2025-001", first.Number)
	assert.Equal(t, "FAT-2025-002", second.Number)
}

func TestAddInvoiceDefaults(t *testing.T) {
	l := newTestInvoicing(t, nil)

	inv, err := l.AddInvoice(model.Invoice{})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, inv.Status)
	assert.Equal(t, model.InvoiceCustomer, inv.Type)
	assert.Equal(t, baseTime, inv.IssueDate)
	assert.NotNil(t, inv.Items)
}

func TestAddInvoiceSnapshotsCustomer(t *testing.T) {
	l := newTestInvoicing(t, nil)
	customer := l.AddCustomer(model.Customer{
		Name:      "Officina Rossi",
		IsCompany: true,
		Email:     "info@rossi.example",
		Address:   "Via Roma 1",
		VATNumber: "IT01234567890",
	})

	inv, err := l.AddInvoice(model.Invoice{CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, "Officina Rossi", inv.CustomerName)
	assert.Equal(t, "info@rossi.example", inv.CustomerEmail)
	assert.Equal(t, "Via Roma 1", inv.CustomerAddress)
	assert.Equal(t, "IT01234567890", inv.CustomerVATNumber)

	// Later customer edits never touch the issued invoice.
	l.UpdateCustomer(customer.ID, model.CustomerPatch{Name: ptr("Officina Bianchi")})
	got, ok := l.GetInvoice(inv.ID)
	require.True(t, ok)
	assert.Equal(t, "Officina Rossi", got.CustomerName)
}

func TestAddInvoiceComputesTotals(t *testing.T) {
	l := newTestInvoicing(t, nil)

	inv, err := l.AddInvoice(model.Invoice{
		Items: []model.InvoiceItem{item("2", "50", "22", "10")},
	})
	require.NoError(t, err)

	assert.True(t, inv.Subtotal.Equal(dec("90")), "subtotal: got %s", inv.Subtotal)
	assert.True(t, inv.TotalVAT.Equal(dec("19.8")), "vat: got %s", inv.TotalVAT)
	assert.True(t, inv.TotalAmount.Equal(dec("109.8")), "total: got %s", inv.TotalAmount)
	require.Len(t, inv.Items, 1)
	assert.NotEmpty(t, inv.Items[0].ID)
	assert.True(t, inv.Items[0].Total.Equal(dec("109.8")))
}

func TestAddInvoiceRejectsBadItems(t *testing.T) {
	l := newTestInvoicing(t, nil)

	_, err := l.AddInvoice(model.Invoice{
		Items: []model.InvoiceItem{item("0", "50", "22", "0")},
	})
	assert.Error(t, err)
	assert.Empty(t, l.ListInvoices())
}

func TestUpdateInvoiceRecomputesTotals(t *testing.T) {
	l := newTestInvoicing(t, nil)
	inv, err := l.AddInvoice(model.Invoice{
		Items: []model.InvoiceItem{item("1", "100", "22", "0")},
	})
	require.NoError(t, err)

	updated, ok, err := l.UpdateInvoice(inv.ID, model.InvoicePatch{
		Items: []model.InvoiceItem{item("3", "10", "4", "0")},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, updated.Subtotal.Equal(dec("30")), "subtotal: got %s", updated.Subtotal)
	assert.True(t, updated.TotalAmount.Equal(dec("31.2")), "total: got %s", updated.TotalAmount)

	// A patch without items leaves the totals alone.
	updated, ok, err = l.UpdateInvoice(inv.ID, model.InvoicePatch{Notes: ptr("brake job")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "brake job", updated.Notes)
	assert.True(t, updated.Subtotal.Equal(dec("30")))

	_, ok, err = l.UpdateInvoice("nope", model.InvoicePatch{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = l.UpdateInvoice(inv.ID, model.InvoicePatch{
		Items: []model.InvoiceItem{item("-1", "10", "4", "0")},
	})
	assert.Error(t, err)
}

func TestUpdateInvoiceStatusPaidDate(t *testing.T) {
	clock := newFakeClock(baseTime)
	l := newTestInvoicing(t, clock)
	inv, err := l.AddInvoice(model.Invoice{})
	require.NoError(t, err)

	// Paid without an explicit date stamps "now".
	paid, ok := l.UpdateInvoiceStatus(inv.ID, model.StatusPaid, nil)
	require.True(t, ok)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, baseTime, *paid.PaidDate)

	// Leaving paid keeps the stamp.
	clock.Advance(24 * time.Hour)
	reverted, ok := l.UpdateInvoiceStatus(inv.ID, model.StatusSent, nil)
	require.True(t, ok)
	require.NotNil(t, reverted.PaidDate)
	assert.Equal(t, baseTime, *reverted.PaidDate)

	// An explicit date wins.
	explicit := baseTime.AddDate(0, 0, -3)
	paid, ok = l.UpdateInvoiceStatus(inv.ID, model.StatusPaid, &explicit)
	require.True(t, ok)
	assert.Equal(t, explicit, *paid.PaidDate)

	_, ok = l.UpdateInvoiceStatus("nope", model.StatusPaid, nil)
	assert.False(t, ok)
}

func TestDeleteCustomerGuard(t *testing.T) {
	l := newTestInvoicing(t, nil)
	customer := l.AddCustomer(model.Customer{Name: "Mario"})
	inv, err := l.AddInvoice(model.Invoice{CustomerID: customer.ID})
	require.NoError(t, err)
	l.UpdateInvoiceStatus(inv.ID, model.StatusSent, nil)

	err = l.DeleteCustomer(customer.ID)
	assert.ErrorIs(t, err, ErrCustomerHasInvoices)

	l.UpdateInvoiceStatus(inv.ID, model.StatusPaid, nil)
	require.NoError(t, l.DeleteCustomer(customer.ID))

	// The invoice survives with its snapshot intact.
	got, ok := l.GetInvoice(inv.ID)
	require.True(t, ok)
	assert.Equal(t, "Mario", got.CustomerName)

	// Unknown ids are a no-op, not an error.
	assert.NoError(t, l.DeleteCustomer("nope"))
}

func TestCustomerLifecycle(t *testing.T) {
	l := newTestInvoicing(t, nil)
	c := l.AddCustomer(model.Customer{Name: "Mario", Email: "mario@example.com"})
	assert.Equal(t, "id-1", c.ID)

	got, ok := l.GetCustomer(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Mario", got.Name)

	updated, ok := l.UpdateCustomer(c.ID, model.CustomerPatch{Phone: ptr("555-0100")})
	require.True(t, ok)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, "mario@example.com", updated.Email)

	_, ok = l.UpdateCustomer("nope", model.CustomerPatch{})
	assert.False(t, ok)

	require.NoError(t, l.DeleteCustomer(c.ID))
	assert.Empty(t, l.ListCustomers())
}

func TestInvoicesByCustomerAndRepair(t *testing.T) {
	l := newTestInvoicing(t, nil)
	customer := l.AddCustomer(model.Customer{Name: "Mario"})

	first, err := l.AddInvoice(model.Invoice{CustomerID: customer.ID, CarID: "car-1", RepairID: "rep-1"})
	require.NoError(t, err)
	_, err = l.AddInvoice(model.Invoice{CustomerID: customer.ID, CarID: "car-1", RepairID: "rep-2"})
	require.NoError(t, err)
	_, err = l.AddInvoice(model.Invoice{CarID: "car-2", RepairID: "rep-1"})
	require.NoError(t, err)

	assert.Len(t, l.InvoicesByCustomer(customer.ID), 2)
	assert.Empty(t, l.InvoicesByCustomer("nope"))

	byRepair := l.InvoicesByRepair("car-1", "rep-1")
	require.Len(t, byRepair, 1)
	assert.Equal(t, first.ID, byRepair[0].ID)
}

func TestInvoiceFromTemplate(t *testing.T) {
	l := newTestInvoicing(t, nil)
	tpl := l.AddTemplate(model.InvoiceTemplate{
		Name: "Tagliando base",
		Items: []model.TemplateItem{
			{Description: "oil change", Quantity: dec("1"), UnitPrice: dec("80"), VATRate: dec("22")},
			{Description: "filter", Quantity: dec("1"), UnitPrice: dec("20"), VATRate: dec("22")},
		},
	})

	inv, err := l.InvoiceFromTemplate(tpl.ID, model.Invoice{Notes: "yearly service"})
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "oil change", inv.Items[0].Description)
	assert.NotEmpty(t, inv.Items[0].ID)
	assert.True(t, inv.Subtotal.Equal(dec("100")), "subtotal: got %s", inv.Subtotal)
	assert.True(t, inv.TotalAmount.Equal(dec("122")), "total: got %s", inv.TotalAmount)
	assert.Equal(t, "yearly service", inv.Notes)

	_, err = l.InvoiceFromTemplate("nope", model.Invoice{})
	assert.Error(t, err)
}

func TestTemplateLifecycle(t *testing.T) {
	l := newTestInvoicing(t, nil)
	tpl := l.AddTemplate(model.InvoiceTemplate{Name: "Revisione"})
	assert.NotNil(t, tpl.Items)

	updated, ok := l.UpdateTemplate(tpl.ID, model.TemplatePatch{
		Name:  ptr("Revisione completa"),
		Items: []model.TemplateItem{{Description: "check", Quantity: dec("1"), UnitPrice: dec("45")}},
	})
	require.True(t, ok)
	assert.Equal(t, "Revisione completa", updated.Name)
	assert.Len(t, updated.Items, 1)

	_, ok = l.UpdateTemplate("nope", model.TemplatePatch{})
	assert.False(t, ok)

	l.DeleteTemplate(tpl.ID)
	assert.Empty(t, l.ListTemplates())
	_, ok = l.GetTemplate(tpl.ID)
	assert.False(t, ok)
}

func TestInvoiceStats(t *testing.T) {
	l := newTestInvoicing(t, nil)

	addPaid := func(total string, paidAt time.Time) {
		inv, err := l.AddInvoice(model.Invoice{Items: []model.InvoiceItem{item("1", total, "0", "0")}})
		require.NoError(t, err)
		l.UpdateInvoiceStatus(inv.ID, model.StatusPaid, &paidAt)
	}

	addPaid("100", baseTime)                   // this month
	addPaid("200", baseTime.AddDate(0, -1, 0)) // last month
	addPaid("400", baseTime.AddDate(0, -4, 0)) // older, revenue only

	// Sent and not yet due: pending only.
	sent, err := l.AddInvoice(model.Invoice{
		Items:   []model.InvoiceItem{item("1", "50", "0", "0")},
		DueDate: baseTime.AddDate(0, 0, 10),
	})
	require.NoError(t, err)
	l.UpdateInvoiceStatus(sent.ID, model.StatusSent, nil)

	// Sent and past due: pending and overdue.
	late, err := l.AddInvoice(model.Invoice{
		Items:   []model.InvoiceItem{item("1", "30", "0", "0")},
		DueDate: baseTime.AddDate(0, 0, -10),
	})
	require.NoError(t, err)
	l.UpdateInvoiceStatus(late.ID, model.StatusSent, nil)

	// Drafts count toward the total only.
	_, err = l.AddInvoice(model.Invoice{})
	require.NoError(t, err)

	stats := l.Stats()
	assert.True(t, stats.TotalRevenue.Equal(dec("700")), "revenue: got %s", stats.TotalRevenue)
	assert.True(t, stats.PendingAmount.Equal(dec("80")), "pending: got %s", stats.PendingAmount)
	assert.True(t, stats.OverdueAmount.Equal(dec("30")), "overdue: got %s", stats.OverdueAmount)
	assert.True(t, stats.ThisMonthRevenue.Equal(dec("100")), "this month: got %s", stats.ThisMonthRevenue)
	assert.True(t, stats.LastMonthRevenue.Equal(dec("200")), "last month: got %s", stats.LastMonthRevenue)
	assert.Equal(t, 6, stats.InvoiceCount)
	assert.Equal(t, 3, stats.PaidCount)
}

func TestDeleteInvoice(t *testing.T) {
	l := newTestInvoicing(t, nil)
	inv, err := l.AddInvoice(model.Invoice{})
	require.NoError(t, err)

	l.DeleteInvoice(inv.ID)
	_, ok := l.GetInvoice(inv.ID)
	assert.False(t, ok)

	l.DeleteInvoice("nope")
	assert.Empty(t, l.ListInvoices())
}
