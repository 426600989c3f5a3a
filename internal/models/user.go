package models

import "time"

// Roles a user can hold. Self-registration always yields RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a canteen customer or staff member.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Role      string    `json:"role" gorm:"type:varchar(20);not null;default:user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

