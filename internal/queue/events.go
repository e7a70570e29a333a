package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types double as routing keys on the events exchange.
const (
	EventOrderStatusUpdated  = "order.status.updated"
	EventOrderItemCancelled  = "order.item.cancelled"
	EventPaymentRecorded     = "payment.recorded"
	EventKitchenTicketUpdate = "kitchen.ticket.updated"
)

type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OrderID    *int64          `json:"orderId,omitempty"`
	PaymentID  *int64          `json:"paymentId,omitempty"`
	UserID     *int64          `json:"userId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent stamps an event with an id and time and encodes data.
func NewEvent(eventType string, data any) (Event, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s: %w", eventType, err)
		}
		evt.Data = raw
	}
	return evt, nil
}

func (e Event) WithOrder(id int64) Event {
	e.OrderID = &id
	return e
}

func (e Event) WithPayment(id int64) Event {
	e.PaymentID = &id
	return e
}

func (e Event) WithUser(id int64) Event {
	if id > 0 {
		e.UserID = &id
	}
	return e
}

func DecodeEvent(body []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, err
	}
	if strings.TrimSpace(evt.Type) == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	return evt, nil
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// BrokerPublisher sends events to the topic exchange for the activity consumer.
type BrokerPublisher struct {
	Client   *Client
	Exchange string
}

func (p *BrokerPublisher) Publish(ctx context.Context, evt Event) error {
	return p.Client.PublishJSON(ctx, p.Exchange, evt.Type, evt.ID, evt)
}

// LocalPublisher applies events in-process when no broker is configured.
type LocalPublisher struct {
	Processor *ActivityProcessor
}

func (p *LocalPublisher) Publish(ctx context.Context, evt Event) error {
	return p.Processor.Apply(ctx, evt)
}
