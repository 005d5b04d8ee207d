package domain

import "time"

// OrderStatus represents the lifecycle of a sell listing.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderLocked    OrderStatus = "locked"
	OrderDispute   OrderStatus = "dispute"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Order is a sell listing backed by the owner's escrow-locked funds.
// Amount is immutable once created; orders are never deleted, only moved to
// a terminal status.
type Order struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	Amount         int64       `json:"amount"`
	PaymentMethod  string      `json:"payment_method"`
	PaymentDetails string      `json:"payment_details"`
	Status         OrderStatus `json:"status"`
	ActiveTradeID  string      `json:"active_trade_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
