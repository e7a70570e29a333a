package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// LoadBills reads the given orders without locking them, for previews.
func (s *Store) LoadBills(ctx context.Context, orderIDs []int64) ([]Order, error) {
	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		order, err := getOrder(ctx, s.db, id, false)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", id, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// RecordPayment settles one or more completed orders as a single payment.
// Status update, kitchen ticket deletion and the payment insert commit
// together, and the order rows stay locked until then, so two cashiers can
// never both settle the same order.
func (s *Store) RecordPayment(ctx context.Context, params RecordPaymentParams) (Payment, error) {
	ids := append([]int64(nil), params.OrderIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var payment Payment
	err := s.withTx(ctx, func(ctx context.Context, tx txQuery) error {
		orders := make([]Order, 0, len(ids))
		bills := make([]billing.Bill, 0, len(ids))
		for i, id := range ids {
			if i > 0 && ids[i-1] == id {
				return billing.ValidationError("The same order was included twice", map[string]any{"orderId": id})
			}
			order, err := getOrder(ctx, tx, id, true)
			if err != nil {
				return fmt.Errorf("order %d: %w", id, err)
			}
			if order.PaymentID != nil {
				return fmt.Errorf("order %d: %w", id, ErrAlreadyPaid)
			}
			orders = append(orders, order)
			bills = append(bills, order.Bill())
		}

		cfg, err := getTaxConfig(ctx, tx)
		if err != nil {
			return err
		}

		_, breakdown, err := billing.SettleBills(bills, cfg)
		if err != nil {
			return err
		}

		change := decimal.Zero
		tendered := params.AmountTendered
		if params.Method == PaymentCash {
			if tendered == nil {
				return billing.ValidationError("Amount tendered is required for cash payments", nil)
			}
			if tendered.LessThan(breakdown.Total) {
				return billing.ValidationError("Amount tendered is less than the total", map[string]any{
					"total":          breakdown.Total.StringFixed(2),
					"amountTendered": tendered.StringFixed(2),
				})
			}
			change = tendered.Sub(breakdown.Total)
		} else {
			tendered = nil
		}

		var tenderedArg any
		if tendered != nil {
			tenderedArg = utils.DecimalToNumeric(*tendered)
		}

		var paymentID int64
		err = tx.QueryRow(ctx, `
			insert into payments (
				receipt_number, method, subtotal, tax_amount, service_tax_amount, rounding_adjustment,
				amount, amount_tendered, change_amount, tax_rate, service_tax_rate, tax_name,
				currency_symbol, cashier_user_id, paid_at
			) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			returning id
		`,
			params.ReceiptNumber,
			string(params.Method),
			utils.DecimalToNumeric(breakdown.Subtotal),
			utils.DecimalToNumeric(breakdown.TaxAmount),
			utils.DecimalToNumeric(breakdown.ServiceTaxAmount),
			utils.DecimalToNumeric(breakdown.RoundingAdjustment),
			utils.DecimalToNumeric(breakdown.Total),
			tenderedArg,
			utils.DecimalToNumeric(change),
			utils.DecimalToNumeric(cfg.TaxRate),
			utils.DecimalToNumeric(cfg.ServiceTaxRate),
			cfg.TaxName,
			cfg.CurrencySymbol,
			params.CashierUserID,
			params.PaidAt,
		).Scan(&paymentID)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		lines := make([]PaymentLine, 0)
		tables := tableNumbers(orders)
		for _, order := range orders {
			for _, item := range order.Items {
				itemID := item.ID
				line := PaymentLine{OrderID: order.ID, OrderItemID: &itemID, Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
				if _, err := tx.Exec(ctx, `
					insert into payment_lines (payment_id, order_id, order_item_id, name, quantity, unit_price)
					values ($1, $2, $3, $4, $5, $6)
				`, paymentID, line.OrderID, line.OrderItemID, line.Name, line.Quantity, utils.DecimalToNumeric(line.UnitPrice)); err != nil {
					return fmt.Errorf("insert payment line: %w", err)
				}
				lines = append(lines, line)
			}
		}

		if _, err := tx.Exec(ctx, `
			update orders set payment_id = $1, paid_at = $2, updated_at = $2
			where id = any($3)
		`, paymentID, params.PaidAt, ids); err != nil {
			return fmt.Errorf("mark orders paid: %w", err)
		}

		if _, err := tx.Exec(ctx, `delete from kitchen_tickets where order_id = any($1)`, ids); err != nil {
			return fmt.Errorf("delete kitchen tickets: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			update dining_tables t
			set status = 'available'
			where t.id in (select table_id from orders where id = any($1) and table_id is not null)
			  and not exists (
				select 1 from orders other
				where other.table_id = t.id
				  and other.payment_id is null
				  and other.status <> 'cancelled'
			  )
		`, ids); err != nil {
			return fmt.Errorf("release tables: %w", err)
		}

		cashier := params.CashierUserID
		payment = Payment{
			ID:                 paymentID,
			ReceiptNumber:      params.ReceiptNumber,
			Method:             params.Method,
			OrderIDs:           ids,
			TableNumbers:       tables,
			Subtotal:           breakdown.Subtotal,
			TaxAmount:          breakdown.TaxAmount,
			ServiceTaxAmount:   breakdown.ServiceTaxAmount,
			RoundingAdjustment: breakdown.RoundingAdjustment,
			Amount:             breakdown.Total,
			AmountTendered:     tendered,
			ChangeAmount:       change,
			TaxConfig:          cfg,
			CashierUserID:      &cashier,
			PaidAt:             params.PaidAt,
			Lines:              lines,
		}
		return nil
	})
	return payment, err
}

func (s *Store) GetPayment(ctx context.Context, paymentID int64) (Payment, error) {
	var (
		p                  Payment
		method             string
		subtotal           pgtype.Numeric
		taxAmount          pgtype.Numeric
		serviceTaxAmount   pgtype.Numeric
		roundingAdjustment pgtype.Numeric
		amount             pgtype.Numeric
		amountTendered     pgtype.Numeric
		changeAmount       pgtype.Numeric
		taxRate            pgtype.Numeric
		serviceTaxRate     pgtype.Numeric
		cashierID          pgtype.Int8
		cashierName        pgtype.Text
	)
	err := s.db.QueryRow(ctx, `
		select p.id, p.receipt_number, p.method, p.subtotal, p.tax_amount, p.service_tax_amount,
		       p.rounding_adjustment, p.amount, p.amount_tendered, p.change_amount, p.tax_rate,
		       p.service_tax_rate, p.tax_name, p.currency_symbol, p.raw_lines, p.cashier_user_id,
		       u.name, p.paid_at
		from payments p
		left join users u on u.id = p.cashier_user_id
		where p.id = $1
	`, paymentID).Scan(
		&p.ID, &p.ReceiptNumber, &method, &subtotal, &taxAmount, &serviceTaxAmount,
		&roundingAdjustment, &amount, &amountTendered, &changeAmount, &taxRate,
		&serviceTaxRate, &p.TaxConfig.TaxName, &p.TaxConfig.CurrencySymbol, &p.RawLines, &cashierID,
		&cashierName, &p.PaidAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, fmt.Errorf("load payment %d: %w", paymentID, err)
	}

	p.Method = PaymentMethod(method)
	p.Subtotal = utils.NumericToDecimal(subtotal)
	p.TaxAmount = utils.NumericToDecimal(taxAmount)
	p.ServiceTaxAmount = utils.NumericToDecimal(serviceTaxAmount)
	p.RoundingAdjustment = utils.NumericToDecimal(roundingAdjustment)
	p.Amount = utils.NumericToDecimal(amount)
	p.ChangeAmount = utils.NumericToDecimal(changeAmount)
	p.TaxConfig.TaxRate = utils.NumericToDecimal(taxRate)
	p.TaxConfig.ServiceTaxRate = utils.NumericToDecimal(serviceTaxRate)
	if amountTendered.Valid {
		v := utils.NumericToDecimal(amountTendered)
		p.AmountTendered = &v
	}
	if cashierID.Valid {
		id := cashierID.Int64
		p.CashierUserID = &id
		p.CashierName = cashierName.String
	}

	lines, err := loadPaymentLines(ctx, s.db, paymentID)
	if err != nil {
		return Payment{}, err
	}
	p.Lines = lines

	rows, err := s.db.Query(ctx, `
		select o.id, coalesce(t.number, '')
		from orders o
		left join dining_tables t on t.id = o.table_id
		where o.payment_id = $1
		order by o.id
	`, paymentID)
	if err != nil {
		return Payment{}, fmt.Errorf("load payment orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			table string
		)
		if err := rows.Scan(&id, &table); err != nil {
			return Payment{}, fmt.Errorf("scan payment order: %w", err)
		}
		p.OrderIDs = append(p.OrderIDs, id)
		if table != "" && !slices.Contains(p.TableNumbers, table) {
			p.TableNumbers = append(p.TableNumbers, table)
		}
	}
	return p, rows.Err()
}

func loadPaymentLines(ctx context.Context, q txQuery, paymentID int64) ([]PaymentLine, error) {
	rows, err := q.Query(ctx, `
		select order_id, order_item_id, name, quantity, unit_price
		from payment_lines
		where payment_id = $1
		order by id asc
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment lines: %w", err)
	}
	defer rows.Close()

	lines := make([]PaymentLine, 0)
	for rows.Next() {
		var (
			line      PaymentLine
			itemID    pgtype.Int8
			unitPrice pgtype.Numeric
		)
		if err := rows.Scan(&line.OrderID, &itemID, &line.Name, &line.Quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan payment line: %w", err)
		}
		if itemID.Valid {
			id := itemID.Int64
			line.OrderItemID = &id
		}
		line.UnitPrice = utils.NumericToDecimal(unitPrice)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// tableNumbers lists each table of orders once, in order of first appearance.
func tableNumbers(orders []Order) []string {
	tables := make([]string, 0, len(orders))
	for _, order := range orders {
		if order.TableNumber != "" && !slices.Contains(tables, order.TableNumber) {
			tables = append(tables, order.TableNumber)
		}
	}
	return tables
}
