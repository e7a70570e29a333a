package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resto-admin-services/internal/billing"

	"github.com/jackc/pgx/v5"
)

const kitchenTicketColumns = `
	kt.id, o.id, o.order_number, coalesce(t.number, ''), o.status,
	oi.id, oi.name, oi.quantity, kt.status, kt.updated_at
`

// ListKitchenTickets returns tickets for orders still in the kitchen and for
// completed orders waiting at the counter.
func (s *Store) ListKitchenTickets(ctx context.Context) ([]KitchenTicket, error) {
	rows, err := s.db.Query(ctx, `
		select `+kitchenTicketColumns+`
		from kitchen_tickets kt
		join order_items oi on oi.id = kt.order_item_id
		join orders o on o.id = kt.order_id
		left join dining_tables t on t.id = o.table_id
		where o.payment_id is null
		  and o.status in ('pending', 'processing', 'completed')
		order by o.created_at asc, oi.id asc
	`)
	if err != nil {
		return nil, fmt.Errorf("list kitchen tickets: %w", err)
	}
	defer rows.Close()

	out := make([]KitchenTicket, 0)
	for rows.Next() {
		ticket, err := scanKitchenTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ticket)
	}
	return out, rows.Err()
}

// UpdateTicketStatus moves one kitchen ticket through the order state machine.
// Starting work on a ticket also starts a pending order.
func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID int64, next billing.Status) (TicketChange, error) {
	var change TicketChange
	err := s.withTx(ctx, func(ctx context.Context, tx txQuery) error {
		row := tx.QueryRow(ctx, `
			select `+kitchenTicketColumns+`
			from kitchen_tickets kt
			join order_items oi on oi.id = kt.order_item_id
			join orders o on o.id = kt.order_id
			left join dining_tables t on t.id = o.table_id
			where kt.id = $1
			for update of kt, o
		`, ticketID)
		ticket, err := scanKitchenTicket(row)
		if err != nil {
			return err
		}

		if !ticket.OrderStatus.AllowsItemChanges() {
			return billing.InvalidTransitionError(ticket.OrderStatus, next)
		}
		if err := billing.Transition(ticket.Status, next); err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `update kitchen_tickets set status = $1, updated_at = $2 where id = $3`, string(next), now, ticketID); err != nil {
			return fmt.Errorf("update kitchen ticket: %w", err)
		}

		advanced := false
		if next == billing.StatusProcessing && ticket.OrderStatus == billing.StatusPending {
			if _, err := tx.Exec(ctx, `
				update orders set status = 'processing', processing_at = $2, updated_at = $2
				where id = $1 and status = 'pending'
			`, ticket.OrderID, now); err != nil {
				return fmt.Errorf("advance order: %w", err)
			}
			ticket.OrderStatus = billing.StatusProcessing
			advanced = true
		}

		change = TicketChange{From: ticket.Status, OrderAdvanced: advanced}
		ticket.Status = next
		ticket.UpdatedAt = now
		change.Ticket = ticket
		return nil
	})
	return change, err
}

func scanKitchenTicket(row pgx.Row) (KitchenTicket, error) {
	var (
		ticket       KitchenTicket
		orderStatus  string
		ticketStatus string
	)
	err := row.Scan(
		&ticket.ID, &ticket.OrderID, &ticket.OrderNumber, &ticket.TableNumber, &orderStatus,
		&ticket.ItemID, &ticket.ItemName, &ticket.Quantity, &ticketStatus, &ticket.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return KitchenTicket{}, ErrNotFound
	}
	if err != nil {
		return KitchenTicket{}, fmt.Errorf("scan kitchen ticket: %w", err)
	}
	ticket.OrderStatus = billing.Status(orderStatus)
	ticket.Status = billing.Status(ticketStatus)
	return ticket, nil
}
