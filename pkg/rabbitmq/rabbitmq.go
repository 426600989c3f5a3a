// Package rabbitmq publishes and consumes order events over AMQP.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

const (
	// DefaultExchange is the topic exchange order events are published to.
	DefaultExchange = "canteen.orders"
	// DefaultQueue is the durable queue bound to every order event.
	DefaultQueue = "order_events"

	orderBindingKey = "order.#"
)

// ErrClosed is returned when the client has no usable channel.
var ErrClosed = errors.New("rabbitmq channel is not available")

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
	Queue    string
	Logger   *slog.Logger
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	logger   *slog.Logger

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewClient connects to RabbitMQ, declares the exchange and the queue and
// binds them.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
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

	if err := declareTopology(ch, cfg.Exchange, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	cfg.Logger.Info("rabbitmq connected", "exchange", cfg.Exchange, "queue", cfg.Queue)

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		logger:   cfg.Logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(queue, orderBindingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message to the exchange.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return ErrClosed
	}
	msg := newPublishing(body, time.Now().UTC())
	if err := c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.logger.Debug("order event published", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

func newPublishing(body []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Body:         body,
	}
}

// NotifyClose reports when the broker connection goes away.
func (c *Client) NotifyClose() <-chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// ConsumeOrderEvents starts a goroutine handing every delivery on the queue
// to messageHandler. A nil return acks the delivery; an error nacks it
// without requeue so a poison message cannot loop. Consumption stops when
// ctx is done or the channel closes.
func (c *Client) ConsumeOrderEvents(ctx context.Context, messageHandler func(msg amqp.Delivery) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return ErrClosed
	}

	consumerTag := "canteen-" + uuid.NewString()[:8]
	msgs, err := ch.Consume(
		c.queue,     // queue
		consumerTag, // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for order events", "queue", c.queue, "consumer", consumerTag)

	go func() {
		for {
			select {
			case <-ctx.Done():
				if err := ch.Cancel(consumerTag, false); err != nil {
					c.logger.Warn("failed to cancel consumer", "error", err)
				}
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(msg, messageHandler)
			}
		}
	}()

	return nil
}

func (c *Client) handle(msg amqp.Delivery, messageHandler func(msg amqp.Delivery) error) {
	if err := messageHandler(msg); err != nil {
		c.logger.Error("failed to process message", "delivery_tag", msg.DeliveryTag, "message_id", msg.MessageId, "error", err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack message", "delivery_tag", msg.DeliveryTag, "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("failed to ack message", "delivery_tag", msg.DeliveryTag, "error", ackErr)
	}
}
