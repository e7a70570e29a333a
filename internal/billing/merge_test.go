package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMergeBills(t *testing.T) {
	a := Bill{ID: 1, TableNumber: "A1", Status: StatusCompleted, Items: []LineItem{{ID: 10, Quantity: 2, UnitPrice: dec(t, "10.00")}}}
	b := Bill{ID: 2, TableNumber: "A2", Status: StatusCompleted, Items: []LineItem{{ID: 11, Quantity: 1, UnitPrice: dec(t, "15.00")}}}

	merged, err := MergeBills([]Bill{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !merged.Subtotal.Equal(dec(t, "35.00")) {
		t.Fatalf("expected 35.00, got %s", merged.Subtotal)
	}
	if len(merged.Items) != 2 || len(merged.BillIDs) != 2 || merged.BillIDs[0] != 1 || merged.BillIDs[1] != 2 {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
}

func TestMergeSingleBill(t *testing.T) {
	a := Bill{ID: 4, Status: StatusCompleted, Items: []LineItem{{Quantity: 3, UnitPrice: dec(t, "4.10")}}}
	merged, err := MergeBills([]Bill{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	own, _ := a.Subtotal()
	if !merged.Subtotal.Equal(own) {
		t.Fatalf("expected %s, got %s", own, merged.Subtotal)
	}
}

func TestMergeBillsRejects(t *testing.T) {
	done := Bill{ID: 1, Status: StatusCompleted, Items: []LineItem{{Quantity: 1, UnitPrice: dec(t, "1.00")}}}

	cases := []struct {
		name  string
		bills []Bill
	}{
		{"empty", nil},
		{"pending bill", []Bill{done, {ID: 2, Status: StatusPending}}},
		{"processing bill", []Bill{done, {ID: 3, Status: StatusProcessing}}},
		{"cancelled bill", []Bill{{ID: 4, Status: StatusCancelled}, done}},
		{"duplicate bill", []Bill{done, done}},
		{"bad line", []Bill{done, {ID: 5, Status: StatusCompleted, Items: []LineItem{{Quantity: 0, UnitPrice: decimal.Zero}}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MergeBills(tc.bills); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMergeBillsReportsEveryOpenOrder(t *testing.T) {
	_, err := MergeBills([]Bill{
		{ID: 1, Status: StatusPending},
		{ID: 2, Status: StatusCompleted},
		{ID: 3, Status: StatusProcessing},
	})
	be, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	orders, _ := be.Details["orders"].([]map[string]any)
	if len(orders) != 2 {
		t.Fatalf("expected two offending orders, got %+v", be.Details)
	}
}

func TestSettleBills(t *testing.T) {
	bills := []Bill{
		{ID: 1, Status: StatusCompleted, Items: []LineItem{{Quantity: 1, UnitPrice: dec(t, "23.00")}}},
		{ID: 2, Status: StatusCompleted, Items: []LineItem{{Quantity: 2, UnitPrice: dec(t, "12.00")}}},
	}
	merged, breakdown, err := SettleBills(bills, TaxConfig{TaxRate: dec(t, "0.06")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !merged.Subtotal.Equal(dec(t, "47")) || !breakdown.Total.Equal(dec(t, "49.80")) {
		t.Fatalf("unexpected settlement: subtotal %s total %s", merged.Subtotal, breakdown.Total)
	}
}
