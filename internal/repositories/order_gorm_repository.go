package repositories

import (
	"context"
	"errors"
	"fmt"

	"canteen/internal/database"
	"canteen/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	gw *database.Gateway
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(gw *database.Gateway) *GORMOrderRepository {
	return &GORMOrderRepository{
		gw: gw,
	}
}

// GetAll retrieves all orders, newest first. There is no pagination.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.gw.Do(ctx, "orders.list", func(tx *gorm.DB) error {
		if err := tx.Order("id DESC").Find(&orders).Error; err != nil {
			return persistence("list orders", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID retrieves a single order.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.gw.Do(ctx, "orders.get", func(tx *gorm.DB) error {
		return findOrder(tx, id, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByUserID retrieves the orders of one user, newest first.
func (r *GORMOrderRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.gw.Do(ctx, "orders.list_by_user", func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
			return persistence("list orders by user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Create inserts a new order. The store assigns the ID.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.StatusPending
	}
	return r.gw.Do(ctx, "orders.create", func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return persistence("create order", err)
		}
		return nil
	})
}

// UpdateStatus performs a compare-and-set on the status column. When no row
// is affected the order is re-read to tell a missing order from one whose
// status has moved on.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := r.gw.Do(ctx, "orders.update_status", func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return persistence("update order status", res.Error)
		}
		if err := findOrder(tx, id, &order); err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %d is %s, not %s: %w", id, order.Status, from, ErrStatusConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func findOrder(tx *gorm.DB, id uint, order *models.Order) error {
	if err := tx.First(order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return persistence("get order", err)
	}
	return nil
}
