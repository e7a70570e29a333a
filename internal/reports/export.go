package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"resto-admin-services/internal/billing"

	"github.com/phpdave11/gofpdf"
)

const timestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"payment_id",
	"receipt_number",
	"paid_at",
	"method",
	"orders",
	"source",
	"subtotal",
	"tax",
	"service_tax",
	"rounding",
	"recalculated_total",
	"stored_amount",
	"mismatch",
}

// WriteCSV writes one row per payment followed by a totals row.
func WriteCSV(w io.Writer, s SalesSummary, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range s.Rows {
		record := []string{
			strconv.FormatInt(row.PaymentID, 10),
			row.ReceiptNumber,
			row.PaidAt.In(loc).Format(timestampLayout),
			string(row.Method),
			strconv.Itoa(row.OrderCount),
			row.Source,
			row.Breakdown.Subtotal.StringFixed(2),
			row.Breakdown.TaxAmount.StringFixed(2),
			row.Breakdown.ServiceTaxAmount.StringFixed(2),
			row.Breakdown.RoundingAdjustment.StringFixed(2),
			row.Breakdown.Total.StringFixed(2),
			row.StoredAmount.StringFixed(2),
			strconv.FormatBool(row.Mismatch),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	totals := []string{
		"", "TOTAL", "", "", "", "",
		s.Subtotal.StringFixed(2),
		s.TaxAmount.StringFixed(2),
		s.ServiceAmount.StringFixed(2),
		s.Rounding.StringFixed(2),
		"",
		s.Revenue.StringFixed(2),
		strconv.Itoa(s.Mismatches),
	}
	if err := cw.Write(totals); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func RenderPDF(s SalesSummary, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Sales Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("%s to %s", s.From.In(loc).Format("2006-01-02"), s.To.In(loc).AddDate(0, 0, -1).Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Summary", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Payments: %d", s.PaymentCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", s.Subtotal.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Tax: %s", s.TaxAmount.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Service tax: %s", s.ServiceAmount.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Rounding: %s", s.Rounding.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Revenue: %s", s.Revenue.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if s.Mismatches > 0 {
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(0, 5, fmt.Sprintf("Mismatched payments: %d", s.Mismatches), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Orders by status", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, status := range sortedStatuses(s.OrdersByStatus) {
		pdf.CellFormat(0, 5, fmt.Sprintf("%s: %d", status, s.OrdersByStatus[status]), "", 1, "L", false, 0, "")
	}

	if len(s.ByMethod) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "By payment method", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, mt := range s.ByMethod {
			pdf.CellFormat(0, 5, fmt.Sprintf("%s: %d payments, %s", mt.Method, mt.Count, mt.Amount.StringFixed(2)), "", 1, "L", false, 0, "")
		}
	}

	pdf.Ln(3)
	widths := []float64{40, 38, 24, 16, 28, 28, 28, 30, 30, 11}
	headers := []string{"Receipt", "Paid at", "Method", "Orders", "Subtotal", "Tax", "Service", "Recalculated", "Stored", "!"}
	pdf.SetFont("Arial", "B", 8)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, row := range s.Rows {
		flag := ""
		if row.Mismatch {
			flag = "x"
		}
		cells := []string{
			row.ReceiptNumber,
			row.PaidAt.In(loc).Format(timestampLayout),
			string(row.Method),
			strconv.Itoa(row.OrderCount),
			row.Breakdown.Subtotal.StringFixed(2),
			row.Breakdown.TaxAmount.StringFixed(2),
			row.Breakdown.ServiceTaxAmount.StringFixed(2),
			row.Breakdown.Total.StringFixed(2),
			row.StoredAmount.StringFixed(2),
			flag,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 5, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func sortedStatuses(counts map[billing.Status]int) []billing.Status {
	out := make([]billing.Status, 0, len(counts))
	for status := range counts {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
