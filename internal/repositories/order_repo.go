package repositories

import (
	"context"

	"canteen/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted.
type OrderRepository interface {
	// GetAll returns every order, newest first.
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	// GetByUserID returns the orders placed by one user, newest first.
	GetByUserID(ctx context.Context, userID uint) ([]models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	// UpdateStatus moves an order from one status to another only if it
	// still holds from, and returns the updated row.
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) (*models.Order, error)
}
