package store

import (
	"context"
	"fmt"

	"resto-admin-services/internal/utils"

	"github.com/jackc/pgx/v5/pgtype"
)

// ListTables returns every table with its open orders and the subtotal of
// the completed, unpaid orders a cashier could settle now.
func (s *Store) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := s.db.Query(ctx, `
		select t.id, t.number, t.seats, t.status,
		       count(o.id) filter (where o.status <> 'cancelled'),
		       coalesce(array_agg(o.id order by o.id) filter (where o.status = 'completed'), '{}'),
		       coalesce(sum(o.subtotal) filter (where o.status = 'completed'), 0),
		       min(o.created_at) filter (where o.status <> 'cancelled')
		from dining_tables t
		left join orders o on o.table_id = t.id and o.payment_id is null
		group by t.id
		order by t.number asc
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := make([]Table, 0)
	for rows.Next() {
		var (
			table    Table
			subtotal pgtype.Numeric
			oldest   pgtype.Timestamptz
		)
		if err := rows.Scan(&table.ID, &table.Number, &table.Seats, &table.Status, &table.OpenOrders, &table.ReadyOrderIDs, &subtotal, &oldest); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		table.ReadySubtotal = utils.NumericToDecimal(subtotal)
		if oldest.Valid {
			t := oldest.Time
			table.OldestOpenSince = &t
		}
		out = append(out, table)
	}
	return out, rows.Err()
}
