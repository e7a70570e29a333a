package reports

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"resto-admin-services/internal/store"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

// RenderReceipt renders a payment receipt using the tax snapshot taken when
// the payment was recorded.
func RenderReceipt(p store.Payment, restaurantName string, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	money := p.TaxConfig.Format

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, restaurantName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Receipt %s", p.ReceiptNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if len(p.TableNumbers) > 0 {
		pdf.CellFormat(0, 5, fmt.Sprintf("Table %s", strings.Join(p.TableNumbers, ", ")), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Paid: %s", p.PaidAt.In(loc).Format(timestampLayout)), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range p.Lines {
		amount := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		pdf.CellFormat(130, 5, fmt.Sprintf("%dx %s", line.Quantity, line.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, money(amount), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", money(p.Subtotal)), "", 1, "L", false, 0, "")
	if !p.TaxAmount.IsZero() {
		pdf.CellFormat(0, 5, fmt.Sprintf("%s (%s%%): %s", taxLabel(p.TaxConfig.TaxName), p.TaxConfig.TaxRate.Shift(2).String(), money(p.TaxAmount.Round(2))), "", 1, "L", false, 0, "")
	}
	if !p.ServiceTaxAmount.IsZero() {
		pdf.CellFormat(0, 5, fmt.Sprintf("Service tax (%s%%): %s", p.TaxConfig.ServiceTaxRate.Shift(2).String(), money(p.ServiceTaxAmount.Round(2))), "", 1, "L", false, 0, "")
	}
	if !p.RoundingAdjustment.IsZero() {
		pdf.CellFormat(0, 5, fmt.Sprintf("Rounding: %s", money(p.RoundingAdjustment.Round(2))), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", money(p.Amount)), "", 1, "L", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s", p.Method), "", 1, "L", false, 0, "")
	if p.AmountTendered != nil {
		pdf.CellFormat(0, 5, fmt.Sprintf("Tendered: %s", money(*p.AmountTendered)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Change: %s", money(p.ChangeAmount)), "", 1, "L", false, 0, "")
	}
	if p.CashierName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Cashier: %s", p.CashierName), "", 1, "L", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func taxLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Tax"
	}
	return name
}
