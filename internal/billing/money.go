package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	cashUnitsPerWhole = decimal.NewFromInt(20)
	CashUnit          = decimal.New(5, -2)
)

type LineItem struct {
	ID        int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type TaxConfig struct {
	TaxRate        decimal.Decimal
	ServiceTaxRate decimal.Decimal
	TaxName        string
	CurrencySymbol string
}

func (c TaxConfig) Validate() error {
	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"taxRate", c.TaxRate},
		{"serviceTaxRate", c.ServiceTaxRate},
	}
	for _, rate := range rates {
		if rate.value.IsNegative() || rate.value.GreaterThan(decimal.NewFromInt(1)) {
			return ValidationError("Tax rate must be between 0 and 1", map[string]any{"field": rate.field, "value": rate.value.String()})
		}
	}
	return nil
}

// Format renders amount with the configured currency symbol and two decimals.
func (c TaxConfig) Format(amount decimal.Decimal) string {
	return c.CurrencySymbol + amount.StringFixed(2)
}

type TaxBreakdown struct {
	Subtotal         decimal.Decimal
	TaxAmount        decimal.Decimal
	ServiceTaxAmount decimal.Decimal
	// GrossTotal is the unrounded sum of subtotal and both charges.
	GrossTotal decimal.Decimal
	// Total is GrossTotal rounded to the cash unit.
	Total              decimal.Decimal
	RoundingAdjustment decimal.Decimal
}

// RoundToCashUnit rounds amount to the nearest 0.05, halves away from zero.
func RoundToCashUnit(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(cashUnitsPerWhole).Round(0).Div(cashUnitsPerWhole)
}

func IsCashAligned(amount decimal.Decimal) bool {
	units := amount.Mul(cashUnitsPerWhole)
	return units.Equal(units.Truncate(0))
}

func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ValidationError("Amount must not be negative", map[string]any{"amount": amount.String()})
	}
	return nil
}

func ComputeSubtotal(items []LineItem) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return decimal.Zero, ValidationError(fmt.Sprintf("Line item %d has a non-positive quantity", i), map[string]any{
				"index":    i,
				"itemId":   item.ID,
				"quantity": item.Quantity,
			})
		}
		if item.UnitPrice.IsNegative() {
			return decimal.Zero, ValidationError(fmt.Sprintf("Line item %d has a negative unit price", i), map[string]any{
				"index":     i,
				"itemId":    item.ID,
				"unitPrice": item.UnitPrice.String(),
			})
		}
		subtotal = subtotal.Add(item.Amount())
	}
	return subtotal, nil
}

// ApplyTax computes both charges on the raw subtotal and rounds only the final total.
func ApplyTax(subtotal decimal.Decimal, cfg TaxConfig) (TaxBreakdown, error) {
	if subtotal.IsNegative() {
		return TaxBreakdown{}, ValidationError("Subtotal must not be negative", map[string]any{"subtotal": subtotal.String()})
	}
	if cfg.TaxRate.IsNegative() || cfg.ServiceTaxRate.IsNegative() {
		return TaxBreakdown{}, ValidationError("Tax rates must not be negative", map[string]any{
			"taxRate":        cfg.TaxRate.String(),
			"serviceTaxRate": cfg.ServiceTaxRate.String(),
		})
	}

	tax := subtotal.Mul(cfg.TaxRate)
	service := subtotal.Mul(cfg.ServiceTaxRate)
	gross := subtotal.Add(tax).Add(service)
	total := RoundToCashUnit(gross)
	if !IsCashAligned(total) {
		return TaxBreakdown{}, InvariantViolationError("Rounded total is not a multiple of the cash unit", map[string]any{
			"gross": gross.String(),
			"total": total.String(),
		})
	}

	return TaxBreakdown{
		Subtotal:           subtotal,
		TaxAmount:          tax,
		ServiceTaxAmount:   service,
		GrossTotal:         gross,
		Total:              total,
		RoundingAdjustment: total.Sub(gross),
	}, nil
}
