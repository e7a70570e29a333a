package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return d
}

func TestRoundToCashUnit(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"8.41", "8.40"},
		{"8.43", "8.45"},
		{"8.46", "8.45"},
		{"8.48", "8.50"},
		{"8.45", "8.45"},
		{"8.425", "8.45"},
		{"8.475", "8.50"},
		{"0.025", "0.05"},
		{"0.024", "0.00"},
		{"0", "0.00"},
		{"106", "106.00"},
		{"49.82", "49.80"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := RoundToCashUnit(dec(t, tc.in))
			if !got.Equal(dec(t, tc.expected)) {
				t.Fatalf("expected %s, got %s", tc.expected, got.StringFixed(2))
			}
		})
	}
}

func TestRoundToCashUnitIdempotentAndAligned(t *testing.T) {
	for cents := int64(0); cents <= 5000; cents++ {
		x := decimal.New(cents, -2)
		once := RoundToCashUnit(x)
		twice := RoundToCashUnit(once)
		if !once.Equal(twice) {
			t.Fatalf("rounding %s is not idempotent: %s then %s", x, once, twice)
		}
		if !IsCashAligned(once) {
			t.Fatalf("rounding %s produced %s which is not a multiple of 0.05", x, once)
		}
		if once.Sub(x).Abs().GreaterThan(decimal.New(25, -3)) {
			t.Fatalf("rounding %s moved too far: %s", x, once)
		}
	}
}

func TestIsCashAligned(t *testing.T) {
	if !IsCashAligned(dec(t, "12.35")) {
		t.Fatalf("expected 12.35 to be aligned")
	}
	if IsCashAligned(dec(t, "12.36")) {
		t.Fatalf("expected 12.36 to be unaligned")
	}
}

func TestComputeSubtotal(t *testing.T) {
	cases := []struct {
		name     string
		items    []LineItem
		expected string
		wantErr  bool
	}{
		{name: "empty", items: nil, expected: "0"},
		{name: "single line", items: []LineItem{{Quantity: 2, UnitPrice: dec(t, "5.00")}}, expected: "10.00"},
		{
			name: "several lines",
			items: []LineItem{
				{Quantity: 1, UnitPrice: dec(t, "23.00")},
				{Quantity: 2, UnitPrice: dec(t, "12.00")},
			},
			expected: "47.00",
		},
		{name: "zero quantity", items: []LineItem{{Quantity: 0, UnitPrice: dec(t, "5.00")}}, wantErr: true},
		{name: "negative quantity", items: []LineItem{{Quantity: -1, UnitPrice: dec(t, "5.00")}}, wantErr: true},
		{name: "negative price", items: []LineItem{{Quantity: 1, UnitPrice: dec(t, "-5.00")}}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSubtotal(tc.items)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(t, tc.expected)) {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestApplyTax(t *testing.T) {
	cfg := TaxConfig{TaxRate: dec(t, "0.06"), ServiceTaxRate: decimal.Zero, TaxName: "SST", CurrencySymbol: "RM"}

	got, err := ApplyTax(dec(t, "100.00"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TaxAmount.Equal(dec(t, "6.00")) {
		t.Fatalf("expected tax 6.00, got %s", got.TaxAmount)
	}
	if !got.ServiceTaxAmount.IsZero() {
		t.Fatalf("expected service tax 0, got %s", got.ServiceTaxAmount)
	}
	if !got.Total.Equal(dec(t, "106.00")) {
		t.Fatalf("expected total 106.00, got %s", got.Total)
	}
	if !got.RoundingAdjustment.IsZero() {
		t.Fatalf("expected no rounding adjustment, got %s", got.RoundingAdjustment)
	}
}

func TestApplyTaxRoundsOnlyTheTotal(t *testing.T) {
	cfg := TaxConfig{TaxRate: dec(t, "0.06"), ServiceTaxRate: dec(t, "0.06")}
	got, err := ApplyTax(dec(t, "10.35"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10.35 + 0.621 + 0.621 = 11.592 -> 11.60
	if !got.GrossTotal.Equal(dec(t, "11.592")) {
		t.Fatalf("expected gross 11.592, got %s", got.GrossTotal)
	}
	if !got.Total.Equal(dec(t, "11.60")) {
		t.Fatalf("expected total 11.60, got %s", got.Total)
	}
	// Rounding each charge first would give 10.35 + 0.60 + 0.60 = 11.55.
	perComponent := dec(t, "10.35").
		Add(RoundToCashUnit(got.TaxAmount)).
		Add(RoundToCashUnit(got.ServiceTaxAmount))
	if !perComponent.Equal(dec(t, "11.55")) {
		t.Fatalf("expected per-component total 11.55, got %s", perComponent)
	}
}

func TestApplyTaxRejectsInvalidInput(t *testing.T) {
	cfg := TaxConfig{TaxRate: dec(t, "0.06")}
	if _, err := ApplyTax(dec(t, "-1"), cfg); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative subtotal, got %v", err)
	}
	cfg.ServiceTaxRate = dec(t, "-0.1")
	if _, err := ApplyTax(dec(t, "10"), cfg); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative rate, got %v", err)
	}
}

func TestTaxConfigValidate(t *testing.T) {
	ok := TaxConfig{TaxRate: dec(t, "0.06"), ServiceTaxRate: dec(t, "0.1")}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := TaxConfig{TaxRate: dec(t, "6"), ServiceTaxRate: decimal.Zero}
	err := bad.Validate()
	be, isBilling := AsError(err)
	if !isBilling || be.Details["field"] != "taxRate" {
		t.Fatalf("expected taxRate validation error, got %v", err)
	}
}

func TestBurgerAndFriesScenario(t *testing.T) {
	items := []LineItem{
		{ID: 1, Name: "Burger", Quantity: 1, UnitPrice: dec(t, "23.00")},
		{ID: 2, Name: "Fries", Quantity: 2, UnitPrice: dec(t, "12.00")},
	}
	subtotal, err := ComputeSubtotal(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ApplyTax(subtotal, TaxConfig{TaxRate: dec(t, "0.06"), ServiceTaxRate: decimal.Zero})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"subtotal", got.Subtotal, "47.00"},
		{"tax", got.TaxAmount, "2.82"},
		{"gross", got.GrossTotal, "49.82"},
		{"total", got.Total, "49.80"},
		{"adjustment", got.RoundingAdjustment, "-0.02"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(t, c.expected)) {
			t.Fatalf("%s: expected %s, got %s", c.name, c.expected, c.got)
		}
	}
}
