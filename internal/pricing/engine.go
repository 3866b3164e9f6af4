// Package pricing computes line-item totals under the configurable discount
// and tax policies shared by quotes, bills, and subscription templates. All
// computation is pure and runs in exact decimal arithmetic over minor units;
// each derived figure is rounded half-to-even exactly once at the end.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/studioops/billing/internal/money"
)

// DiscountMode selects how a discount value is interpreted.
type DiscountMode string

const (
	DiscountModeAmount  DiscountMode = "AMOUNT"
	DiscountModePercent DiscountMode = "PERCENT"
)

// TaxMode selects whether unit prices already contain tax.
type TaxMode string

const (
	TaxModeExclusive TaxMode = "EXCLUSIVE"
	TaxModeInclusive TaxMode = "INCLUSIVE"
)

// LineItem is a single priced line. UnitPrice is in minor units; Quantity and
// TaxRate are exact decimals (TaxRate is a percentage, 0-100).
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   money.Money     `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Category    string          `json:"category"`
}

// DiscountSpec describes a document-level discount applied against the
// pre-tax subtotal.
type DiscountSpec struct {
	Mode  DiscountMode    `json:"mode"`
	Value decimal.Decimal `json:"value"`
}

// Totals is the derived monetary summary of a document. It is always a
// recomputable projection of the items, never edited by hand.
type Totals struct {
	SubTotal      money.Money `json:"sub_total"`
	DiscountTotal money.Money `json:"discount_total"`
	TaxTotal      money.Money `json:"tax_total"`
	GrandTotal    money.Money `json:"grand_total"`
}

var (
	oneHundred = decimal.NewFromInt(100)
)

// ComputeTotals derives subtotal, discount, tax, and grand total from an item
// list. The currency is taken from shipping; callers validate that all item
// prices share it before calling.
//
// An AMOUNT discount is capped at the subtotal so the discount can never
// invert it. Under EXCLUSIVE tax the item-level tax sum is prorated by the
// ratio the discount reduced the subtotal; under INCLUSIVE tax the embedded
// tax is extracted per item and the discount is presumed to come out of the
// fully inclusive price, so no proration applies and tax is not re-added to
// the grand total.
func ComputeTotals(items []LineItem, discount DiscountSpec, taxMode TaxMode, shipping money.Money) Totals {
	currency := shipping.Currency

	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(item.Quantity.Mul(item.UnitPrice.Decimal()))
	}

	discountTotal := discountAmount(discount, subTotal)
	discountedSubtotal := subTotal.Sub(discountTotal)

	var taxTotal decimal.Decimal
	switch taxMode {
	case TaxModeInclusive:
		for _, item := range items {
			line := item.Quantity.Mul(item.UnitPrice.Decimal())
			taxTotal = taxTotal.Add(line.Mul(item.TaxRate).Div(oneHundred.Add(item.TaxRate)))
		}
	default:
		for _, item := range items {
			line := item.Quantity.Mul(item.UnitPrice.Decimal())
			taxTotal = taxTotal.Add(line.Mul(item.TaxRate).Div(oneHundred))
		}
		// A discount shrinks the tax base proportionally. Zero subtotal
		// means zero tax, never a division by zero.
		if subTotal.IsZero() {
			taxTotal = decimal.Zero
		} else {
			taxTotal = taxTotal.Mul(discountedSubtotal).Div(subTotal)
		}
	}

	grandTotal := discountedSubtotal.Add(shipping.Decimal())
	if taxMode != TaxModeInclusive {
		grandTotal = grandTotal.Add(taxTotal)
	}

	return Totals{
		SubTotal:      money.FromDecimal(subTotal, currency),
		DiscountTotal: money.FromDecimal(discountTotal, currency),
		TaxTotal:      money.FromDecimal(taxTotal, currency),
		GrandTotal:    money.FromDecimal(grandTotal, currency),
	}
}

func discountAmount(discount DiscountSpec, subTotal decimal.Decimal) decimal.Decimal {
	switch discount.Mode {
	case DiscountModePercent:
		return subTotal.Mul(discount.Value).Div(oneHundred)
	case DiscountModeAmount:
		if discount.Value.GreaterThan(subTotal) {
			return subTotal
		}
		return discount.Value
	default:
		return decimal.Zero
	}
}

// ValidDiscountMode reports whether the mode is one of the closed set.
func ValidDiscountMode(mode DiscountMode) bool {
	return mode == "" || mode == DiscountModeAmount || mode == DiscountModePercent
}

// ValidTaxMode reports whether the mode is one of the closed set.
func ValidTaxMode(mode TaxMode) bool {
	return mode == TaxModeExclusive || mode == TaxModeInclusive
}
