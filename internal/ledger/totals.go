package ledger

import (
	"fmt"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// CalculateInvoiceTotals recomputes the four derived monetary fields from the
// item lines. Pure function: same items in, same totals out.
//
// Per line: gross = quantity × unitPrice, discountAmount = gross × discount/100,
// net = gross − discountAmount, vat = net × vatRate/100. VAT always applies to
// the discounted net, never to gross.
func CalculateInvoiceTotals(items []model.InvoiceItem) model.InvoiceTotals {
	totals := model.InvoiceTotals{
		Subtotal:      decimal.Zero,
		TotalVAT:      decimal.Zero,
		TotalAmount:   decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	for _, item := range items {
		gross := item.Quantity.Mul(item.UnitPrice)
		discountAmount := gross.Mul(item.Discount).Div(oneHundred)
		net := gross.Sub(discountAmount)
		vat := net.Mul(item.VATRate).Div(oneHundred)

		totals.Subtotal = totals.Subtotal.Add(net)
		totals.TotalVAT = totals.TotalVAT.Add(vat)
		totals.TotalDiscount = totals.TotalDiscount.Add(discountAmount)
	}

	totals.TotalAmount = totals.Subtotal.Add(totals.TotalVAT)
	return totals
}

// validateItems enforces the line-level domain rules at the ledger boundary.
func validateItems(items []model.InvoiceItem) error {
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must not be negative", i)
		}
		if item.Discount.IsNegative() || item.Discount.GreaterThan(oneHundred) {
			return fmt.Errorf("item %d: discount must be between 0 and 100", i)
		}
		if item.VATRate.IsNegative() {
			return fmt.Errorf("item %d: vat rate must not be negative", i)
		}
	}
	return nil
}

// normalizeItems mints ids for new lines and refreshes the per-line derived
// fields. Caller-supplied Total/VATAmount values are discarded.
func normalizeItems(items []model.InvoiceItem, newID IDFunc) []model.InvoiceItem {
	out := make([]model.InvoiceItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = newID()
		}
		gross := item.Quantity.Mul(item.UnitPrice)
		discountAmount := gross.Mul(item.Discount).Div(oneHundred)
		net := gross.Sub(discountAmount)
		item.VATAmount = net.Mul(item.VATRate).Div(oneHundred)
		item.Total = net.Add(item.VATAmount)
		out[i] = item
	}
	return out
}
