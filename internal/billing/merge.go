package billing

import (
	"github.com/shopspring/decimal"
)

type MergedBill struct {
	BillIDs  []int64
	Items    []LineItem
	Subtotal decimal.Decimal
}

// MergeBills combines completed bills into one subtotal. A single bill is
// returned as itself. Any bill that is not completed rejects the whole merge.
func MergeBills(bills []Bill) (MergedBill, error) {
	if len(bills) == 0 {
		return MergedBill{}, ValidationError("At least one bill is required", nil)
	}

	var notCompleted []map[string]any
	seen := make(map[int64]struct{}, len(bills))
	ids := make([]int64, 0, len(bills))
	itemCount := 0
	for _, bill := range bills {
		if bill.Status != StatusCompleted {
			notCompleted = append(notCompleted, map[string]any{"orderId": bill.ID, "status": string(bill.Status)})
		}
		if _, dup := seen[bill.ID]; dup {
			return MergedBill{}, ValidationError("The same bill was included twice", map[string]any{"orderId": bill.ID})
		}
		seen[bill.ID] = struct{}{}
		ids = append(ids, bill.ID)
		itemCount += len(bill.Items)
	}
	if len(notCompleted) > 0 {
		return MergedBill{}, ValidationError("Only completed orders can be paid", map[string]any{"orders": notCompleted})
	}

	items := make([]LineItem, 0, itemCount)
	for _, bill := range bills {
		items = append(items, bill.Items...)
	}

	subtotal, err := ComputeSubtotal(items)
	if err != nil {
		return MergedBill{}, err
	}

	return MergedBill{BillIDs: ids, Items: items, Subtotal: subtotal}, nil
}

// SettleBills merges bills and applies tax to the merged subtotal.
func SettleBills(bills []Bill, cfg TaxConfig) (MergedBill, TaxBreakdown, error) {
	merged, err := MergeBills(bills)
	if err != nil {
		return MergedBill{}, TaxBreakdown{}, err
	}
	breakdown, err := ApplyTax(merged.Subtotal, cfg)
	if err != nil {
		return MergedBill{}, TaxBreakdown{}, err
	}
	return merged, breakdown, nil
}
