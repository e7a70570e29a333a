package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/store"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sst() billing.TaxConfig {
	return billing.TaxConfig{TaxRate: d("0.06"), ServiceTaxRate: d("0"), TaxName: "SST", CurrencySymbol: "RM"}
}

func strPtr(v string) *string { return &v }

type fakeSource struct {
	payments []store.Payment
	counts   map[billing.Status]int
	err      error
}

func (f fakeSource) ListPaymentsBetween(context.Context, time.Time, time.Time) ([]store.Payment, error) {
	return f.payments, f.err
}

func (f fakeSource) CountOrdersByStatus(context.Context, time.Time, time.Time) (map[billing.Status]int, error) {
	return f.counts, nil
}

func samplePayments() []store.Payment {
	paidAt := time.Date(2026, 5, 1, 4, 0, 0, 0, time.UTC)
	return []store.Payment{
		{
			ID:            1,
			ReceiptNumber: "R-1",
			Method:        store.PaymentCash,
			OrderIDs:      []int64{10, 11},
			Amount:        d("49.80"),
			TaxConfig:     sst(),
			PaidAt:        paidAt,
			Lines: []store.PaymentLine{
				{OrderID: 10, Name: "Burger", Quantity: 2, UnitPrice: d("12.50")},
				{OrderID: 11, Name: "Fries", Quantity: 3, UnitPrice: d("7.33")},
			},
		},
		{
			ID:            2,
			ReceiptNumber: "R-2",
			Method:        store.PaymentCard,
			OrderIDs:      []int64{12},
			Amount:        d("10.60"),
			TaxConfig:     sst(),
			PaidAt:        paidAt.Add(time.Hour),
			RawLines:      strPtr("2:5.00"),
		},
		{
			ID:            3,
			ReceiptNumber: "R-3",
			Method:        store.PaymentCash,
			OrderIDs:      []int64{13},
			Amount:        d("20.00"),
			TaxConfig:     sst(),
			PaidAt:        paidAt.Add(2 * time.Hour),
			RawLines:      strPtr("1:18.00"),
		},
	}
}

func TestBuildSalesSummary(t *testing.T) {
	counts := map[billing.Status]int{billing.StatusCompleted: 4, billing.StatusCancelled: 2}
	summary, err := BuildSalesSummary(samplePayments(), counts, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.PaymentCount != 3 {
		t.Fatalf("expected 3 payments, got %d", summary.PaymentCount)
	}
	// 49.80 + 10.60 + 20.00; cancelled orders never reach a payment.
	if !summary.Revenue.Equal(d("80.40")) {
		t.Fatalf("unexpected revenue %s", summary.Revenue)
	}
	if summary.Rows[0].Source != SourceLines || summary.Rows[1].Source != SourceRawLines {
		t.Fatalf("unexpected sources: %s, %s", summary.Rows[0].Source, summary.Rows[1].Source)
	}
	// 18.00 * 1.06 = 19.08, stored 20.00
	if summary.Mismatches != 1 || !summary.Rows[2].Mismatch || summary.Rows[0].Mismatch {
		t.Fatalf("expected only R-3 flagged, got %+v", summary.Rows)
	}
	if !summary.Rows[2].Breakdown.Total.Equal(d("19.10")) {
		t.Fatalf("expected R-3 recalculated to 19.10, got %s", summary.Rows[2].Breakdown.Total)
	}
	if len(summary.ByMethod) != 2 || summary.ByMethod[0].Method != store.PaymentCard || summary.ByMethod[1].Count != 2 {
		t.Fatalf("unexpected method totals: %+v", summary.ByMethod)
	}
	if summary.OrdersByStatus[billing.StatusCancelled] != 2 {
		t.Fatalf("expected cancelled count to pass through")
	}
}

func TestBuildSalesSummaryRejectsMalformedLegacyLines(t *testing.T) {
	payments := samplePayments()
	payments[1].RawLines = strPtr("2:5.00||oops")

	_, err := BuildSalesSummary(payments, nil, time.Time{}, time.Time{})
	if !errors.Is(err, billing.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	be, _ := billing.AsError(err)
	if be.Details["paymentId"] != int64(2) || be.Details["receiptNumber"] != "R-2" {
		t.Fatalf("expected payment identity in details, got %+v", be.Details)
	}
	if !strings.Contains(be.Message, "R-2") {
		t.Fatalf("expected receipt number in message, got %q", be.Message)
	}
}

func TestLoadSalesSummary(t *testing.T) {
	src := fakeSource{payments: samplePayments(), counts: map[billing.Status]int{billing.StatusCompleted: 4}}
	summary, err := LoadSalesSummary(context.Background(), src, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.PaymentCount != 3 || summary.OrdersByStatus[billing.StatusCompleted] != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	failing := fakeSource{err: errors.New("db down")}
	if _, err := LoadSalesSummary(context.Background(), failing, time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected loader error")
	}
}

func TestWriteCSV(t *testing.T) {
	summary, err := BuildSalesSummary(samplePayments(), nil, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, summary, time.UTC); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected header, 3 rows and totals, got %d records", len(records))
	}
	if records[1][1] != "R-1" || records[1][10] != "49.80" || records[1][12] != "false" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[4][1] != "TOTAL" || records[4][11] != "80.40" || records[4][12] != "1" {
		t.Fatalf("unexpected totals row: %v", records[4])
	}
}

func TestRenderPDFs(t *testing.T) {
	summary, err := BuildSalesSummary(samplePayments(), map[billing.Status]int{billing.StatusCompleted: 1}, time.Now(), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := RenderPDF(summary, time.UTC)
	if err != nil {
		t.Fatalf("render report: %v", err)
	}
	if !bytes.HasPrefix(report, []byte("%PDF")) {
		t.Fatalf("expected a PDF document")
	}

	tendered := d("50.00")
	payment := samplePayments()[0]
	payment.Subtotal = d("46.99")
	payment.TaxAmount = d("2.8194")
	payment.RoundingAdjustment = d("-0.0094")
	payment.AmountTendered = &tendered
	payment.ChangeAmount = d("0.20")
	payment.TableNumbers = []string{"T1", "T2"}
	receipt, err := RenderReceipt(payment, "Resto", time.UTC)
	if err != nil {
		t.Fatalf("render receipt: %v", err)
	}
	if !bytes.HasPrefix(receipt, []byte("%PDF")) {
		t.Fatalf("expected a PDF receipt")
	}
}
