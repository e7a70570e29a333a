package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Line source markers for a recalculated payment.
const (
	SourceLines    = "lines"
	SourceRawLines = "raw_lines"
	SourceNone     = "none"
)

type Source interface {
	ListPaymentsBetween(ctx context.Context, from, to time.Time) ([]store.Payment, error)
	CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[billing.Status]int, error)
}

type PaymentRow struct {
	PaymentID      int64
	ReceiptNumber  string
	PaidAt         time.Time
	Method         store.PaymentMethod
	OrderCount     int
	Source         string
	Breakdown      billing.TaxBreakdown
	StoredAmount   decimal.Decimal
	CurrencySymbol string
	Mismatch       bool
}

type MethodTotal struct {
	Method store.PaymentMethod
	Count  int
	Amount decimal.Decimal
}

type SalesSummary struct {
	From           time.Time
	To             time.Time
	PaymentCount   int
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ServiceAmount  decimal.Decimal
	Rounding       decimal.Decimal
	Revenue        decimal.Decimal
	Mismatches     int
	ByMethod       []MethodTotal
	OrdersByStatus map[billing.Status]int
	Rows           []PaymentRow
}

// LoadSalesSummary fetches payments and order counts concurrently and builds
// the summary for [from, to).
func LoadSalesSummary(ctx context.Context, src Source, from, to time.Time) (SalesSummary, error) {
	var (
		payments []store.Payment
		counts   map[billing.Status]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = src.ListPaymentsBetween(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = src.CountOrdersByStatus(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return SalesSummary{}, err
	}

	return BuildSalesSummary(payments, counts, from, to)
}

// BuildSalesSummary recalculates every payment from its stored lines and
// flags payments whose stored amount disagrees. Only settled payments count
// toward revenue, so cancelled orders never contribute.
func BuildSalesSummary(payments []store.Payment, counts map[billing.Status]int, from, to time.Time) (SalesSummary, error) {
	summary := SalesSummary{
		From:           from,
		To:             to,
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		ServiceAmount:  decimal.Zero,
		Rounding:       decimal.Zero,
		Revenue:        decimal.Zero,
		OrdersByStatus: counts,
		Rows:           make([]PaymentRow, 0, len(payments)),
	}
	if summary.OrdersByStatus == nil {
		summary.OrdersByStatus = map[billing.Status]int{}
	}

	methods := make(map[store.PaymentMethod]*MethodTotal)
	for _, p := range payments {
		row, err := recalculate(p)
		if err != nil {
			return SalesSummary{}, err
		}
		summary.Rows = append(summary.Rows, row)
		summary.PaymentCount++
		summary.Subtotal = summary.Subtotal.Add(row.Breakdown.Subtotal)
		summary.TaxAmount = summary.TaxAmount.Add(row.Breakdown.TaxAmount)
		summary.ServiceAmount = summary.ServiceAmount.Add(row.Breakdown.ServiceTaxAmount)
		summary.Rounding = summary.Rounding.Add(row.Breakdown.RoundingAdjustment)
		summary.Revenue = summary.Revenue.Add(row.StoredAmount)
		if row.Mismatch {
			summary.Mismatches++
		}

		mt, ok := methods[p.Method]
		if !ok {
			mt = &MethodTotal{Method: p.Method, Amount: decimal.Zero}
			methods[p.Method] = mt
		}
		mt.Count++
		mt.Amount = mt.Amount.Add(row.StoredAmount)
	}

	for _, mt := range methods {
		summary.ByMethod = append(summary.ByMethod, *mt)
	}
	sort.Slice(summary.ByMethod, func(i, j int) bool { return summary.ByMethod[i].Method < summary.ByMethod[j].Method })

	return summary, nil
}

func recalculate(p store.Payment) (PaymentRow, error) {
	row := PaymentRow{
		PaymentID:      p.ID,
		ReceiptNumber:  p.ReceiptNumber,
		PaidAt:         p.PaidAt,
		Method:         p.Method,
		OrderCount:     len(p.OrderIDs),
		StoredAmount:   p.Amount,
		CurrencySymbol: p.TaxConfig.CurrencySymbol,
	}

	var (
		breakdown billing.TaxBreakdown
		err       error
	)
	switch {
	case len(p.Lines) > 0:
		row.Source = SourceLines
		items := make([]billing.LineItem, 0, len(p.Lines))
		for _, line := range p.Lines {
			items = append(items, billing.LineItem{Name: line.Name, Quantity: line.Quantity, UnitPrice: line.UnitPrice})
		}
		var subtotal decimal.Decimal
		subtotal, err = billing.ComputeSubtotal(items)
		if err == nil {
			breakdown, err = billing.ApplyTax(subtotal, p.TaxConfig)
		}
	case p.RawLines != nil:
		row.Source = SourceRawLines
		breakdown, err = billing.RecalculateBreakdownFromRawLines(*p.RawLines, p.TaxConfig)
	default:
		row.Source = SourceNone
		breakdown, err = billing.ApplyTax(decimal.Zero, p.TaxConfig)
	}
	if err != nil {
		return PaymentRow{}, paymentError(p, err)
	}

	row.Breakdown = breakdown
	row.Mismatch = !breakdown.Total.Equal(p.Amount)
	return row, nil
}

// paymentError attaches the payment identity to a recalculation failure.
func paymentError(p store.Payment, err error) error {
	be, ok := billing.AsError(err)
	if !ok {
		return fmt.Errorf("payment %d: %w", p.ID, err)
	}
	details := map[string]any{
		"paymentId":     p.ID,
		"receiptNumber": p.ReceiptNumber,
	}
	for k, v := range be.Details {
		details[k] = v
	}
	out := *be
	out.Message = fmt.Sprintf("Payment %s cannot be recalculated: %s", p.ReceiptNumber, be.Message)
	out.Details = details
	return &out
}
