package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromDecimalRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100.5", 100},
		{"101.5", 102},
		{"100.4", 100},
		{"100.6", 101},
		{"-100.5", -100},
		{"0", 0},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		got := FromDecimal(d, "USD")
		if got.Amount != tc.want {
			t.Fatalf("FromDecimal(%s) = %d, want %d", tc.in, got.Amount, tc.want)
		}
		if got.Currency != "USD" {
			t.Fatalf("expected USD, got %q", got.Currency)
		}
	}
}

func TestAddSub(t *testing.T) {
	a := New(1500, "USD")
	b := New(500, "USD")
	if got := a.Add(b).Amount; got != 2000 {
		t.Fatalf("Add = %d, want 2000", got)
	}
	if got := a.Sub(b).Amount; got != 1000 {
		t.Fatalf("Sub = %d, want 1000", got)
	}
}

func TestAddPanicsOnCurrencyMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on currency mismatch")
		}
	}()
	New(100, "USD").Add(New(100, "EUR"))
}

func TestCurrencyNormalized(t *testing.T) {
	m := New(10, " usd ")
	if m.Currency != "USD" {
		t.Fatalf("expected USD, got %q", m.Currency)
	}
}

func TestString(t *testing.T) {
	if got := New(106200, "USD").String(); got != "1062.00 USD" {
		t.Fatalf("String = %q", got)
	}
}

func TestValidCurrency(t *testing.T) {
	if !ValidCurrency("USD") || !ValidCurrency("eur") {
		t.Fatalf("expected valid codes")
	}
	if ValidCurrency("") || ValidCurrency("US") || ValidCurrency("U5D") {
		t.Fatalf("expected invalid codes")
	}
}
