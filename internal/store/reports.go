package store

import (
	"context"
	"fmt"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/utils"

	"github.com/jackc/pgx/v5/pgtype"
)

// ListPaymentsBetween returns payments in [from, to) with their tax snapshot
// and stored lines. Legacy payments carry RawLines instead of Lines.
func (s *Store) ListPaymentsBetween(ctx context.Context, from, to time.Time) ([]Payment, error) {
	rows, err := s.db.Query(ctx, `
		select p.id, p.receipt_number, p.method, p.amount, p.tax_rate, p.service_tax_rate,
		       p.tax_name, p.currency_symbol, p.raw_lines, p.paid_at,
		       coalesce(array_agg(o.id order by o.id) filter (where o.id is not null), '{}')
		from payments p
		left join orders o on o.payment_id = p.id
		where p.paid_at >= $1 and p.paid_at < $2
		group by p.id
		order by p.paid_at asc
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			p              Payment
			method         string
			amount         pgtype.Numeric
			taxRate        pgtype.Numeric
			serviceTaxRate pgtype.Numeric
		)
		if err := rows.Scan(&p.ID, &p.ReceiptNumber, &method, &amount, &taxRate, &serviceTaxRate,
			&p.TaxConfig.TaxName, &p.TaxConfig.CurrencySymbol, &p.RawLines, &p.PaidAt, &p.OrderIDs); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Method = PaymentMethod(method)
		p.Amount = utils.NumericToDecimal(amount)
		p.TaxConfig.TaxRate = utils.NumericToDecimal(taxRate)
		p.TaxConfig.ServiceTaxRate = utils.NumericToDecimal(serviceTaxRate)
		index[p.ID] = len(payments)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return payments, nil
	}

	ids := make([]int64, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}
	lineRows, err := s.db.Query(ctx, `
		select payment_id, order_id, order_item_id, name, quantity, unit_price
		from payment_lines
		where payment_id = any($1)
		order by id asc
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list payment lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			paymentID int64
			line      PaymentLine
			itemID    pgtype.Int8
			unitPrice pgtype.Numeric
		)
		if err := lineRows.Scan(&paymentID, &line.OrderID, &itemID, &line.Name, &line.Quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan payment line: %w", err)
		}
		if itemID.Valid {
			id := itemID.Int64
			line.OrderItemID = &id
		}
		line.UnitPrice = utils.NumericToDecimal(unitPrice)
		if i, ok := index[paymentID]; ok {
			payments[i].Lines = append(payments[i].Lines, line)
		}
	}
	return payments, lineRows.Err()
}

// CountOrdersByStatus counts orders created in [from, to).
func (s *Store) CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[billing.Status]int, error) {
	rows, err := s.db.Query(ctx, `
		select status, count(*)
		from orders
		where created_at >= $1 and created_at < $2
		group by status
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	defer rows.Close()

	out := map[billing.Status]int{
		billing.StatusPending:    0,
		billing.StatusProcessing: 0,
		billing.StatusCompleted:  0,
		billing.StatusCancelled:  0,
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan order count: %w", err)
		}
		out[billing.Status(status)] = count
	}
	return out, rows.Err()
}
