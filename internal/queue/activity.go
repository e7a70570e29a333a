package queue

import (
	"context"
	"encoding/json"

	"resto-admin-services/internal/store"

	"go.uber.org/zap"
)

const (
	EventsExchange  = "resto.events"
	ActivityQueue   = "resto.activity"
	ActivityDLX     = "resto.activity.dead"
	ActivityDLQ     = "resto.activity.dlq"
	ActivityDeadRK  = "dead"
	ActivityRetries = 3
)

// ActivityTopology routes every order, payment and kitchen event to the
// activity queue.
var ActivityTopology = Topology{
	Exchange:       EventsExchange,
	Queue:          ActivityQueue,
	Bindings:       []string{"order.#", "payment.#", "kitchen.#"},
	DeadExchange:   ActivityDLX,
	DeadQueue:      ActivityDLQ,
	DeadRoutingKey: ActivityDeadRK,
}

func EnsureActivityTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	return qc.Declare(ActivityTopology)
}

type ActivityWriter interface {
	InsertActivityLog(ctx context.Context, entry store.ActivityLog) error
}

type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// ActivityProcessor records each event in activity_logs and pushes it to
// connected kitchen displays. Hub may be nil.
type ActivityProcessor struct {
	Logs   ActivityWriter
	Hub    Broadcaster
	Logger *zap.Logger
}

// Handle is the ConsumeWithRetry handler. Undecodable bodies are dropped
// since retrying cannot fix them.
func (p *ActivityProcessor) Handle(ctx context.Context, body []byte) error {
	evt, err := DecodeEvent(body)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("dropping malformed event", zap.Error(err), zap.ByteString("body", body))
		}
		return nil
	}
	return p.Apply(ctx, evt)
}

func (p *ActivityProcessor) Apply(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := p.Logs.InsertActivityLog(ctx, store.ActivityLog{
		EventID:   evt.ID,
		EventType: evt.Type,
		OrderID:   evt.OrderID,
		PaymentID: evt.PaymentID,
		UserID:    evt.UserID,
		Payload:   payload,
		CreatedAt: evt.OccurredAt,
	}); err != nil {
		return err
	}
	if p.Hub != nil {
		p.Hub.Broadcast(evt.Type, evt)
	}
	return nil
}
