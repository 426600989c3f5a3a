package models

import (
	"strings"
	"time"
)

// OrderItem is one line item exactly as the client sent it. Items are
// stored as JSON text and are not checked against any menu.
type OrderItem map[string]any

// Order represents a canteen order placed by a user.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index;not null"`
	FullName  string      `json:"fullname" gorm:"column:fullname;type:varchar(200)"`
	Contact   string      `json:"contact" gorm:"type:varchar(100)"`
	Location  string      `json:"location" gorm:"type:varchar(255)"`
	Items     []OrderItem `json:"items" gorm:"serializer:json;type:text"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(32);not null;default:pending;index"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderStatus is one of a closed set of order states.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusAccepted       OrderStatus = "accepted"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusRejected       OrderStatus = "rejected"
	StatusCancelled      OrderStatus = "cancelled"
)

// transitions lists, for every state, the states it may move to.
// States with no entry are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusAccepted, StatusPreparing, StatusRejected, StatusCancelled},
	StatusAccepted:       {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
}

var allStatuses = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusRejected,
	StatusCancelled,
}

// AllStatuses returns every valid order status.
func AllStatuses() []OrderStatus {
	out := make([]OrderStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseOrderStatus normalizes raw input ("Out for Delivery", "ACCEPTED", "out-for-delivery")
// and returns the matching status.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// NextStatuses returns the states s may move to.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
