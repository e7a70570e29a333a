package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]OrderSummary, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var status *string
	if filter.Status != nil {
		v := string(*filter.Status)
		status = &v
	}
	var table *string
	if filter.TableNumber != "" {
		table = &filter.TableNumber
	}

	rows, err := s.db.Query(ctx, `
		select o.id, o.order_number, coalesce(t.number, ''), o.status, o.subtotal,
		       count(oi.id), o.payment_id, o.created_at, o.updated_at
		from orders o
		left join dining_tables t on t.id = o.table_id
		left join order_items oi on oi.order_id = o.id
		where ($1::text is null or o.status = $1)
		  and ($2::text is null or t.number = $2)
		  and (not $3 or o.payment_id is null)
		group by o.id, t.number
		order by o.created_at desc
		limit $4
	`, status, table, filter.Unpaid, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]OrderSummary, 0)
	for rows.Next() {
		var (
			o         OrderSummary
			subtotal  pgtype.Numeric
			paymentID pgtype.Int8
			st        string
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.TableNumber, &st, &subtotal, &o.ItemCount, &paymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = billing.Status(st)
		o.Subtotal = utils.NumericToDecimal(subtotal)
		if paymentID.Valid {
			id := paymentID.Int64
			o.PaymentID = &id
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	return getOrder(ctx, s.db, orderID, false)
}

// getOrder loads an order with its items. forUpdate locks the order row for
// the rest of the surrounding transaction.
func getOrder(ctx context.Context, q txQuery, orderID int64, forUpdate bool) (Order, error) {
	query := `
		select o.id, o.order_number, coalesce(t.number, ''), o.status, o.subtotal, o.note,
		       o.cancel_reason, o.payment_id, o.paid_at, o.created_at, o.updated_at
		from orders o
		left join dining_tables t on t.id = o.table_id
		where o.id = $1
	`
	if forUpdate {
		query += ` for update of o`
	}

	var (
		order     Order
		status    string
		subtotal  pgtype.Numeric
		paymentID pgtype.Int8
		paidAt    pgtype.Timestamptz
	)
	err := q.QueryRow(ctx, query, orderID).Scan(
		&order.ID, &order.OrderNumber, &order.TableNumber, &status, &subtotal, &order.Note,
		&order.CancelReason, &paymentID, &paidAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("load order %d: %w", orderID, err)
	}
	order.Status = billing.Status(status)
	order.Subtotal = utils.NumericToDecimal(subtotal)
	if paymentID.Valid {
		id := paymentID.Int64
		order.PaymentID = &id
	}
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}

	items, err := loadOrderItems(ctx, q, orderID)
	if err != nil {
		return Order{}, err
	}
	order.Items = items
	return order, nil
}

func loadOrderItems(ctx context.Context, q txQuery, orderID int64) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		select oi.id, oi.menu_item_id, oi.name, oi.quantity, oi.unit_price, kt.id, kt.status
		from order_items oi
		left join kitchen_tickets kt on kt.order_item_id = oi.id
		where oi.order_id = $1
		order by oi.id asc
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var (
			item         OrderItem
			menuItemID   pgtype.Int8
			unitPrice    pgtype.Numeric
			ticketID     pgtype.Int8
			ticketStatus pgtype.Text
		)
		if err := rows.Scan(&item.ID, &menuItemID, &item.Name, &item.Quantity, &unitPrice, &ticketID, &ticketStatus); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.UnitPrice = utils.NumericToDecimal(unitPrice)
		if menuItemID.Valid {
			id := menuItemID.Int64
			item.MenuItemID = &id
		}
		if ticketID.Valid {
			id := ticketID.Int64
			st := billing.Status(ticketStatus.String)
			item.TicketID = &id
			item.TicketStatus = &st
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateOrderStatus applies a state-machine transition under a row lock.
// A rejected transition returns the billing error and writes nothing.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, next billing.Status, note *string) (StatusChange, error) {
	var change StatusChange
	err := s.withTx(ctx, func(ctx context.Context, tx txQuery) error {
		order, err := getOrder(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		if err := billing.Transition(order.Status, next); err != nil {
			return err
		}

		now := time.Now()
		_, err = tx.Exec(ctx, `
			update orders
			set status = $1,
				updated_at = $2,
				processing_at = case when $1 = 'processing' then $2 else processing_at end,
				completed_at = case when $1 = 'completed' then $2 else completed_at end,
				cancelled_at = case when $1 = 'cancelled' then $2 else cancelled_at end,
				cancel_reason = case when $1 = 'cancelled' then coalesce($3, cancel_reason) else cancel_reason end,
				note = case when $1 <> 'cancelled' then coalesce($3, note) else note end
			where id = $4
		`, string(next), now, note, orderID)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		// Tickets follow the order once it is settled in the kitchen.
		switch next {
		case billing.StatusCompleted:
			_, err = tx.Exec(ctx, `
				update kitchen_tickets set status = 'completed', updated_at = $2
				where order_id = $1 and status in ('pending', 'processing')
			`, orderID, now)
		case billing.StatusCancelled:
			_, err = tx.Exec(ctx, `
				update kitchen_tickets set status = 'cancelled', updated_at = $2
				where order_id = $1 and status in ('pending', 'processing')
			`, orderID, now)
			if err == nil {
				err = releaseTableIfIdle(ctx, tx, orderID)
			}
		}
		if err != nil {
			return fmt.Errorf("update kitchen tickets: %w", err)
		}

		change = StatusChange{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TableNumber: order.TableNumber,
			From:        order.Status,
			To:          next,
			ChangedAt:   now,
		}
		return nil
	})
	return change, err
}

// CancelOrderItem removes one line from an open order, records it in the
// audit table and stores the recomputed subtotal.
func (s *Store) CancelOrderItem(ctx context.Context, orderID, itemID int64, reason *string, userID int64) (ItemCancellation, error) {
	var out ItemCancellation
	err := s.withTx(ctx, func(ctx context.Context, tx txQuery) error {
		order, err := getOrder(ctx, tx, orderID, true)
		if err != nil {
			return err
		}

		_, subtotal, err := billing.CancelItem(order.Bill(), itemID)
		if err != nil {
			return err
		}

		var removed OrderItem
		for _, item := range order.Items {
			if item.ID == itemID {
				removed = item
				break
			}
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `
			insert into cancelled_items (order_id, order_item_id, name, quantity, unit_price, reason, cancelled_by_user_id, cancelled_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8)
		`, orderID, removed.ID, removed.Name, removed.Quantity, utils.DecimalToNumeric(removed.UnitPrice), reason, userID, now); err != nil {
			return fmt.Errorf("insert cancelled item: %w", err)
		}

		if _, err := tx.Exec(ctx, `delete from order_items where id = $1 and order_id = $2`, itemID, orderID); err != nil {
			return fmt.Errorf("delete order item: %w", err)
		}

		if _, err := tx.Exec(ctx, `update orders set subtotal = $1, updated_at = $2 where id = $3`, utils.DecimalToNumeric(subtotal), now, orderID); err != nil {
			return fmt.Errorf("update order subtotal: %w", err)
		}

		out = ItemCancellation{
			OrderID:     orderID,
			OrderNumber: order.OrderNumber,
			Item:        removed,
			Subtotal:    subtotal,
			CancelledAt: now,
		}
		return nil
	})
	return out, err
}

func releaseTableIfIdle(ctx context.Context, tx txQuery, orderID int64) error {
	_, err := tx.Exec(ctx, `
		update dining_tables t
		set status = 'available'
		from orders o
		where o.id = $1
		  and t.id = o.table_id
		  and not exists (
			select 1 from orders other
			where other.table_id = t.id
			  and other.id <> o.id
			  and other.payment_id is null
			  and other.status <> 'cancelled'
		  )
	`, orderID)
	return err
}
