package billing

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := allowedTransitions[s]; !ok {
		return "", ValidationError("Unknown order status", map[string]any{"status": value})
	}
	return s, nil
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllowsItemChanges reports whether line items may still be cancelled.
func (s Status) AllowsItemChanges() bool {
	return s == StatusPending || s == StatusProcessing
}

// Transition validates a status change. It never mutates anything, so a
// rejected change leaves the caller's state as it was.
func Transition(current, next Status) error {
	if _, ok := allowedTransitions[current]; !ok {
		return ValidationError("Unknown order status", map[string]any{"status": string(current)})
	}
	if _, ok := allowedTransitions[next]; !ok {
		return ValidationError("Unknown order status", map[string]any{"status": string(next)})
	}
	if current.IsTerminal() {
		return InvalidTransitionError(current, next)
	}
	for _, allowed := range allowedTransitions[current] {
		if allowed == next {
			return nil
		}
	}
	return InvalidTransitionError(current, next)
}

type Bill struct {
	ID          int64
	TableNumber string
	Status      Status
	Items       []LineItem
}

func (b Bill) Subtotal() (decimal.Decimal, error) {
	return ComputeSubtotal(b.Items)
}

// CancelItem returns a copy of bill without itemID together with the
// recomputed subtotal. The bill status is untouched.
func CancelItem(bill Bill, itemID int64) (Bill, decimal.Decimal, error) {
	if !bill.Status.AllowsItemChanges() {
		return bill, decimal.Zero, newError(CodeInvalidTransition, "Items can only be cancelled while the order is pending or processing", http.StatusConflict, map[string]any{
			"orderId": bill.ID,
			"status":  string(bill.Status),
		})
	}

	remaining := make([]LineItem, 0, len(bill.Items))
	found := false
	for _, item := range bill.Items {
		if item.ID == itemID && !found {
			found = true
			continue
		}
		remaining = append(remaining, item)
	}
	if !found {
		return bill, decimal.Zero, ValidationError("Item does not belong to this order", map[string]any{
			"orderId": bill.ID,
			"itemId":  itemID,
		})
	}

	subtotal, err := ComputeSubtotal(remaining)
	if err != nil {
		return bill, decimal.Zero, err
	}

	out := bill
	out.Items = remaining
	return out, subtotal, nil
}
