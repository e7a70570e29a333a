package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const connectionName = "resto-admin-services"

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	// guards publishes from request goroutines and the retry loop
	mu sync.Mutex
}

func New(url string) (*Client, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(connectionName)

	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second, Properties: props})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Topology describes a durable work queue fed by a topic exchange. Messages
// the consumer gives up on are routed to DeadQueue through DeadExchange.
type Topology struct {
	Exchange       string
	Queue          string
	Bindings       []string
	DeadExchange   string
	DeadQueue      string
	DeadRoutingKey string
}

func (t Topology) validate() error {
	if t.Exchange == "" || t.Queue == "" {
		return errors.New("topology needs an exchange and a queue")
	}
	if len(t.Bindings) == 0 {
		return errors.New("topology needs at least one binding")
	}
	if (t.DeadExchange == "") != (t.DeadQueue == "") {
		return errors.New("dead-letter exchange and queue must be set together")
	}
	return nil
}

func (t Topology) queueArgs() amqp.Table {
	if t.DeadExchange == "" {
		return nil
	}
	return amqp.Table{
		"x-dead-letter-exchange":    t.DeadExchange,
		"x-dead-letter-routing-key": t.DeadRoutingKey,
	}
}

// Declare creates the exchanges, queues and bindings of t. Every declaration
// is idempotent, so each instance runs it at startup.
func (c *Client) Declare(t Topology) error {
	if err := t.validate(); err != nil {
		return err
	}

	if err := c.ch.ExchangeDeclare(t.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return err
	}
	if t.DeadExchange != "" {
		if err := c.ch.ExchangeDeclare(t.DeadExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return err
		}
		if _, err := c.ch.QueueDeclare(t.DeadQueue, true, false, false, false, nil); err != nil {
			return err
		}
		if err := c.ch.QueueBind(t.DeadQueue, t.DeadRoutingKey, t.DeadExchange, false, nil); err != nil {
			return err
		}
	}

	if _, err := c.ch.QueueDeclare(t.Queue, true, false, false, false, t.queueArgs()); err != nil {
		return err
	}
	for _, key := range t.Bindings {
		if err := c.ch.QueueBind(t.Queue, key, t.Exchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// PublishJSON sends payload as a persistent message. messageID lets consumers
// recognise redeliveries.
func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey, messageID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Body:         body,
		Timestamp:    time.Now(),
	})
}

func (c *Client) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}
