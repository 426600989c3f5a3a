package repositories

import (
	"context"
	"errors"
	"fmt"

	"canteen/internal/database"
	"canteen/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	gw *database.Gateway
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(gw *database.Gateway) *GORMUserRepository {
	return &GORMUserRepository{
		gw: gw,
	}
}

// Create inserts a new user. The unique email index decides duplicates, so
// there is no check-then-insert window.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.gw.Do(ctx, "users.create", func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
			}
			return persistence("create user", err)
		}
		return nil
	})
}

// GetByEmail retrieves a user by exact email match.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.gw.Do(ctx, "users.get_by_email", func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user with email %s: %w", email, ErrNotFound)
			}
			return persistence("get user by email", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

