package store

import (
	"context"
	"fmt"
	"time"
)

// InsertActivityLog is idempotent per EventID so redelivered events are recorded once.
func (s *Store) InsertActivityLog(ctx context.Context, entry ActivityLog) error {
	payload := entry.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		insert into activity_logs (event_id, event_type, order_id, payment_id, user_id, payload, created_at)
		values (nullif($1, ''), $2, $3, $4, $5, $6::jsonb, $7)
		on conflict (event_id) do nothing
	`, entry.EventID, entry.EventType, entry.OrderID, entry.PaymentID, entry.UserID, string(payload), createdAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}
