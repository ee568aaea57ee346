package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"foozadmin/internal/logging"

	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// DefaultExchange is the topic exchange dashboard change events go through.
const DefaultExchange = "dashboard"

// Routing keys of the published events.
const (
	KindMediaUploaded  = "media.uploaded"
	KindMediaDeleted   = "media.deleted"
	KindCatalogChanged = "catalog.changed"
)

// ChangeEvent tells other consoles that a listing they may have cached is
// stale.
type ChangeEvent struct {
	Kind   string    `json:"kind"`
	Entity string    `json:"entity,omitempty"`
	IDs    []string  `json:"ids,omitempty"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	origin   string
	log      *logrus.Entry
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
	// Origin identifies this console in published events so it can skip
	// its own messages when consuming.
	Origin string
	Logger *logrus.Entry
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// topic exchange.
func NewClient(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.WithField("exchange", exchange).Info("RabbitMQ client connected")

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		origin:   cfg.Origin,
		log:      log,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishChange publishes ev as a persistent JSON message routed by its kind.
func (c *Client) PublishChange(ev ChangeEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.Origin == "" {
		ev.Origin = c.origin
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	err = c.channel.Publish(
		c.exchange, // exchange
		ev.Kind,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.At,
		})
	if err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	c.log.WithField("kind", ev.Kind).Debug("published change event")
	return nil
}

// ConsumeChanges binds a private, auto-deleted queue to every routing key of
// the exchange and hands decoded events to handler in a goroutine. Events
// from this client's own origin are acknowledged and skipped. Messages that
// fail to decode are dropped; handler errors requeue the message once.
func (c *Client) ConsumeChanges(handler func(ChangeEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		"",    // name: server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}
	if err := c.channel.QueueBind(queue.Name, "#", c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
	}()
	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(ChangeEvent) error) {
	ack, requeue := c.dispatch(msg.Body, msg.Redelivered, handler)
	if ack {
		if err := msg.Ack(false); err != nil {
			c.log.WithError(err).Warn("failed to ack change event")
		}
		return
	}
	if err := msg.Nack(false, requeue); err != nil {
		c.log.WithError(err).Warn("failed to nack change event")
	}
}

// dispatch decides the fate of one delivery: ack, requeue, or drop.
func (c *Client) dispatch(body []byte, redelivered bool, handler func(ChangeEvent) error) (ack, requeue bool) {
	var ev ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.log.WithError(err).Warn("dropping malformed change event")
		return false, false
	}
	if c.origin != "" && ev.Origin == c.origin {
		return true, false
	}
	if err := handler(ev); err != nil {
		c.log.WithError(err).WithField("kind", ev.Kind).Warn("change event handler failed")
		return false, !redelivered
	}
	return true, false
}
