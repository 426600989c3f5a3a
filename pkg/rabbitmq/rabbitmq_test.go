package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	amqp "github.com/streadway/amqp"
)

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{URL: "not-an-amqp-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to RabbitMQ")
}

func TestNewPublishing(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body := []byte(`{"event":"order.created"}`)

	first := newPublishing(body, now)
	second := newPublishing(body, now)

	assert.Equal(t, "application/json", first.ContentType)
	assert.Equal(t, amqp.Persistent, first.DeliveryMode)
	assert.Equal(t, now, first.Timestamp)
	assert.Equal(t, body, first.Body)
	_, err := uuid.Parse(first.MessageId)
	assert.NoError(t, err)
	assert.NotEqual(t, first.MessageId, second.MessageId)
}

func TestClosedClient(t *testing.T) {
	c := &Client{}

	err := c.Publish(context.Background(), "order.created", []byte("{}"))
	assert.ErrorIs(t, err, ErrClosed)

	err = c.ConsumeOrderEvents(context.Background(), func(amqp.Delivery) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)

	assert.NoError(t, c.Close())
}

func TestPublish_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&Client{}).Publish(ctx, "order.created", []byte("{}"))
	assert.ErrorIs(t, err, context.Canceled)
}
