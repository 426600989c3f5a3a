package repositories

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"canteen/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[uint]models.Order
	nextID uint
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[uint]models.Order),
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(models.Order) bool { return true }), nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	order.Items = cloneItems(order.Items)
	return &order, nil
}

// GetByUserID returns the orders of one user, newest first.
func (r *MockOrderRepository) GetByUserID(_ context.Context, userID uint) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(o models.Order) bool { return o.UserID == userID }), nil
}

// Create adds a new order and assigns its ID.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	order.ID = r.nextID
	if order.Status == "" {
		order.Status = models.StatusPending
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := *order
	stored.Items = cloneItems(order.Items)
	r.orders[order.ID] = stored
	return nil
}

// UpdateStatus moves an order from one status to another if it still holds from.
func (r *MockOrderRepository) UpdateStatus(_ context.Context, id uint, from, to models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	if order.Status != from {
		return nil, fmt.Errorf("order %d is %s, not %s: %w", id, order.Status, from, ErrStatusConflict)
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order

	out := order
	out.Items = cloneItems(order.Items)
	return &out, nil
}

func (r *MockOrderRepository) sorted(keep func(models.Order) bool) []models.Order {
	list := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			o.Items = cloneItems(o.Items)
			list = append(list, o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func cloneItems(items []models.OrderItem) []models.OrderItem {
	if items == nil {
		return nil
	}
	out := make([]models.OrderItem, len(items))
	for i, item := range items {
		out[i] = maps.Clone(item)
	}
	return out
}
