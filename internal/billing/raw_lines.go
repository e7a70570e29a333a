package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	rawLineSeparator = "||"
	rawPairSeparator = ":"
)

// ParseRawLines decodes legacy "qty:price" pairs joined by "||". An empty
// string holds no lines. Any malformed segment fails the whole input.
func ParseRawLines(encoded string) ([]LineItem, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, nil
	}

	segments := strings.Split(encoded, rawLineSeparator)
	items := make([]LineItem, 0, len(segments))
	for i, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, rawLineError(i, segment, "empty entry")
		}

		qtyText, priceText, ok := strings.Cut(segment, rawPairSeparator)
		if !ok {
			return nil, rawLineError(i, segment, "missing separator")
		}
		if strings.Contains(priceText, rawPairSeparator) {
			return nil, rawLineError(i, segment, "too many separators")
		}

		qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
		if err != nil {
			return nil, rawLineError(i, segment, "quantity is not an integer")
		}
		if qty <= 0 {
			return nil, rawLineError(i, segment, "quantity must be positive")
		}

		price, err := decimal.NewFromString(strings.TrimSpace(priceText))
		if err != nil {
			return nil, rawLineError(i, segment, "price is not numeric")
		}
		if price.IsNegative() {
			return nil, rawLineError(i, segment, "price must not be negative")
		}

		items = append(items, LineItem{Quantity: qty, UnitPrice: price})
	}
	return items, nil
}

// RecalculatePaymentFromRawLines rebuilds a historical payment amount from its
// encoded lines using the supplied tax settings.
func RecalculatePaymentFromRawLines(encoded string, cfg TaxConfig) (decimal.Decimal, error) {
	breakdown, err := RecalculateBreakdownFromRawLines(encoded, cfg)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.Total, nil
}

func RecalculateBreakdownFromRawLines(encoded string, cfg TaxConfig) (TaxBreakdown, error) {
	items, err := ParseRawLines(encoded)
	if err != nil {
		return TaxBreakdown{}, err
	}
	subtotal, err := ComputeSubtotal(items)
	if err != nil {
		return TaxBreakdown{}, err
	}
	return ApplyTax(subtotal, cfg)
}

func rawLineError(index int, segment string, reason string) *Error {
	return ValidationError(fmt.Sprintf("Malformed encoded line %d: %s", index, reason), map[string]any{
		"index":   index,
		"segment": segment,
		"reason":  reason,
	})
}
