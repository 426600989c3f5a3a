package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"canteen/internal/services"
	"canteen/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

// newWatchOrdersCmd consumes the order event queue and logs every event.
// It is an audit tail for operators, not a client notification channel.
func newWatchOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch-orders",
		Short: "Log order events from RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL environment variable is not set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Logger: logger})
			if err != nil {
				return err
			}
			defer mqClient.Close()
			closed := mqClient.NotifyClose()

			err = mqClient.ConsumeOrderEvents(ctx, func(msg amqp.Delivery) error {
				ev, err := decodeOrderEvent(msg.Body)
				if err != nil {
					return err
				}
				logger.Info("order event",
					"event", ev.Event,
					"order_id", ev.OrderID,
					"user_id", ev.UserID,
					"status", ev.Status,
					"previous_status", ev.PreviousStatus,
					"total", ev.Total,
					"occurred_at", ev.OccurredAt,
				)
				return nil
			})
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				logger.Info("watch stopped")
				return nil
			case amqpErr := <-closed:
				if amqpErr == nil {
					return nil
				}
				return fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
			}
		},
	}
}

func decodeOrderEvent(body []byte) (services.OrderEvent, error) {
	var ev services.OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("malformed order event: %w", err)
	}
	if ev.Event == "" || ev.OrderID == 0 {
		return ev, errors.New("malformed order event: missing event or order_id")
	}
	return ev, nil
}
