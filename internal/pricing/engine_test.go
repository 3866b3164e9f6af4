package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/studioops/billing/internal/money"
)

func item(qty int64, unitCents int64, taxPercent int64) LineItem {
	return LineItem{
		Description: "studio session",
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   money.New(unitCents, "USD"),
		TaxRate:     decimal.NewFromInt(taxPercent),
	}
}

func TestComputeTotalsExclusiveWithPercentDiscount(t *testing.T) {
	items := []LineItem{item(2, 50000, 18)}
	discount := DiscountSpec{Mode: DiscountModePercent, Value: decimal.NewFromInt(10)}

	totals := ComputeTotals(items, discount, TaxModeExclusive, money.Zero("USD"))

	if totals.SubTotal.Amount != 100000 {
		t.Fatalf("sub_total = %d, want 100000", totals.SubTotal.Amount)
	}
	if totals.DiscountTotal.Amount != 10000 {
		t.Fatalf("discount_total = %d, want 10000", totals.DiscountTotal.Amount)
	}
	if totals.TaxTotal.Amount != 16200 {
		t.Fatalf("tax_total = %d, want 16200 (18000 prorated by 0.9)", totals.TaxTotal.Amount)
	}
	if totals.GrandTotal.Amount != 106200 {
		t.Fatalf("grand_total = %d, want 106200", totals.GrandTotal.Amount)
	}
}

func TestComputeTotalsInclusiveExtractsTax(t *testing.T) {
	items := []LineItem{item(2, 50000, 18)}
	discount := DiscountSpec{Mode: DiscountModePercent, Value: decimal.NewFromInt(10)}

	totals := ComputeTotals(items, discount, TaxModeInclusive, money.Zero("USD"))

	// 100000 * 18/118 = 15254.23..., rounded half-to-even.
	if totals.TaxTotal.Amount != 15254 {
		t.Fatalf("tax_total = %d, want 15254", totals.TaxTotal.Amount)
	}
	// Tax is embedded in the discounted subtotal, never re-added.
	if totals.GrandTotal.Amount != 90000 {
		t.Fatalf("grand_total = %d, want 90000", totals.GrandTotal.Amount)
	}
}

func TestComputeTotalsAmountDiscountCappedAtSubtotal(t *testing.T) {
	items := []LineItem{item(1, 2500, 0)}
	discount := DiscountSpec{Mode: DiscountModeAmount, Value: decimal.NewFromInt(99999)}

	totals := ComputeTotals(items, discount, TaxModeExclusive, money.Zero("USD"))

	if totals.DiscountTotal.Amount != 2500 {
		t.Fatalf("discount_total = %d, want cap at 2500", totals.DiscountTotal.Amount)
	}
	if totals.GrandTotal.Amount != 0 {
		t.Fatalf("grand_total = %d, want 0", totals.GrandTotal.Amount)
	}
}

func TestComputeTotalsFullDiscountDrivesExclusiveTaxToZero(t *testing.T) {
	items := []LineItem{item(3, 10000, 18)}
	discount := DiscountSpec{Mode: DiscountModePercent, Value: decimal.NewFromInt(100)}

	totals := ComputeTotals(items, discount, TaxModeExclusive, money.Zero("USD"))

	if totals.TaxTotal.Amount != 0 {
		t.Fatalf("tax_total = %d, want 0 via proration ratio", totals.TaxTotal.Amount)
	}
	if totals.GrandTotal.Amount != 0 {
		t.Fatalf("grand_total = %d, want 0", totals.GrandTotal.Amount)
	}
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, DiscountSpec{}, TaxModeExclusive, money.Zero("USD"))
	if totals.SubTotal.Amount != 0 || totals.DiscountTotal.Amount != 0 ||
		totals.TaxTotal.Amount != 0 || totals.GrandTotal.Amount != 0 {
		t.Fatalf("expected all-zero totals, got %+v", totals)
	}
}

func TestComputeTotalsShippingAddedAfterDiscount(t *testing.T) {
	items := []LineItem{item(1, 10000, 0)}
	discount := DiscountSpec{Mode: DiscountModeAmount, Value: decimal.NewFromInt(1000)}

	totals := ComputeTotals(items, discount, TaxModeExclusive, money.New(500, "USD"))

	if totals.GrandTotal.Amount != 9500 {
		t.Fatalf("grand_total = %d, want 9500", totals.GrandTotal.Amount)
	}
}

func TestComputeTotalsRoundsOnceNotPerItem(t *testing.T) {
	// Three lines of 3.33 at 10% tax. Per-item rounding would yield
	// 33+33+33=99; a single final rounding of 99.9 yields 100.
	items := []LineItem{item(1, 333, 10), item(1, 333, 10), item(1, 333, 10)}

	totals := ComputeTotals(items, DiscountSpec{}, TaxModeExclusive, money.Zero("USD"))

	if totals.TaxTotal.Amount != 100 {
		t.Fatalf("tax_total = %d, want 100", totals.TaxTotal.Amount)
	}
}

func TestComputeTotalsFractionalQuantity(t *testing.T) {
	half, _ := decimal.NewFromString("2.5")
	items := []LineItem{{
		Quantity:  half,
		UnitPrice: money.New(10000, "USD"),
		TaxRate:   decimal.NewFromInt(20),
	}}

	totals := ComputeTotals(items, DiscountSpec{}, TaxModeExclusive, money.Zero("USD"))

	if totals.SubTotal.Amount != 25000 {
		t.Fatalf("sub_total = %d, want 25000", totals.SubTotal.Amount)
	}
	if totals.TaxTotal.Amount != 5000 {
		t.Fatalf("tax_total = %d, want 5000", totals.TaxTotal.Amount)
	}
	if totals.GrandTotal.Amount != 30000 {
		t.Fatalf("grand_total = %d, want 30000", totals.GrandTotal.Amount)
	}
}

func TestComputeTotalsInvariants(t *testing.T) {
	cases := []struct {
		name     string
		items    []LineItem
		discount DiscountSpec
		mode     TaxMode
	}{
		{"no discount", []LineItem{item(2, 199, 18), item(5, 1, 0)}, DiscountSpec{}, TaxModeExclusive},
		{"percent", []LineItem{item(1, 97, 7)}, DiscountSpec{Mode: DiscountModePercent, Value: decimal.NewFromInt(33)}, TaxModeExclusive},
		{"amount over", []LineItem{item(1, 50, 18)}, DiscountSpec{Mode: DiscountModeAmount, Value: decimal.NewFromInt(5000)}, TaxModeExclusive},
		{"inclusive", []LineItem{item(7, 12345, 18)}, DiscountSpec{Mode: DiscountModePercent, Value: decimal.NewFromInt(50)}, TaxModeInclusive},
		{"empty", nil, DiscountSpec{Mode: DiscountModePercent, Value: decimal.NewFromInt(10)}, TaxModeExclusive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeTotals(tc.items, tc.discount, tc.mode, money.Zero("USD"))
			if totals.GrandTotal.Amount < 0 {
				t.Fatalf("grand_total %d < 0", totals.GrandTotal.Amount)
			}
			if totals.DiscountTotal.Amount > totals.SubTotal.Amount {
				t.Fatalf("discount_total %d > sub_total %d", totals.DiscountTotal.Amount, totals.SubTotal.Amount)
			}
		})
	}
}
