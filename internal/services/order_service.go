package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"canteen/internal/logging"
	"canteen/internal/metrics"
	"canteen/internal/models"
	"canteen/internal/repositories"
)

var (
	// ErrOrderNotFound means no order has the requested ID.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatus means the requested status is not in the closed set.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidTransition means the order cannot move from its current
	// status to the requested one.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransitionError is a status change the transition table rejects.
// It matches ErrInvalidTransition.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Routing keys of the order events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher delivers order events downstream. pkg/rabbitmq.Client
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// OrderEvent is the body of every published order event.
type OrderEvent struct {
	Event          string             `json:"event"`
	OrderID        uint               `json:"order_id"`
	UserID         uint               `json:"user_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Total          float64            `json:"total"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// PlaceOrderInput carries the fields of a new order.
type PlaceOrderInput struct {
	UserID   uint
	FullName string
	Contact  string
	Location string
	Items    []models.OrderItem
	Total    float64
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil, in
// which case no events are sent.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder stores a new pending order. Items and total are taken as given.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	order := &models.Order{
		UserID:   in.UserID,
		FullName: in.FullName,
		Contact:  in.Contact,
		Location: in.Location,
		Items:    in.Items,
		Total:    in.Total,
		Status:   models.StatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	metrics.OrdersPlaced.Inc()
	logging.FromContext(ctx).Info("order placed", "order_id", order.ID, "user_id", order.UserID, "total", order.Total)

	s.publish(ctx, EventOrderCreated, order, "")
	return order, nil
}

// GetAllOrders retrieves all orders, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrderByID retrieves a single order.
func (s *OrderService) GetOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateOrderError(id, err)
	}
	return order, nil
}

// GetUserOrders retrieves the orders placed by one user, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to the status named by raw, following
// the transition table. Only the status changes.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, raw string) (*models.Order, error) {
	target, ok := models.ParseOrderStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}

	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateOrderError(id, err)
	}
	from := current.Status
	if !from.CanTransitionTo(target) {
		return nil, &TransitionError{From: from, To: target}
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, id, from, target)
	if err != nil {
		return nil, translateOrderError(id, err)
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()
	logging.FromContext(ctx).Info("order status changed", "order_id", id, "from", from, "to", target)

	s.publish(ctx, EventOrderStatusChanged, updated, from)
	return updated, nil
}

// publish is best effort: a broker failure never fails the request.
func (s *OrderService) publish(ctx context.Context, routingKey string, order *models.Order, previous models.OrderStatus) {
	if s.publisher == nil {
		return
	}
	logger := logging.FromContext(ctx)

	body, err := json.Marshal(OrderEvent{
		Event:          routingKey,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Total,
		OccurredAt:     s.now(),
	})
	if err != nil {
		logger.Error("failed to marshal order event", "event", routingKey, "order_id", order.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, body); err != nil {
		logger.Warn("failed to publish order event", "event", routingKey, "order_id", order.ID, "error", err)
	}
}

func translateOrderError(id uint, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	case errors.Is(err, repositories.ErrStatusConflict):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	default:
		return fmt.Errorf("order %d: %w", id, err)
	}
}
