package coins

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle of a coin order. Pending orders
// move to exactly one terminal status; a terminal order never transitions
// again.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
)

// IsTerminal reports whether the order has reached a final status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderFailed
}

// PaymentMethod represents how the order is paid for
type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	PaymentMethodWallet      PaymentMethod = "wallet"
)

// Package is a purchasable coin bundle. TotalCoins is denormalized and
// recomputed on every write.
type Package struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	BaseCoins  int64     `db:"base_coins" json:"base_coins"`
	BonusCoins int64     `db:"bonus_coins" json:"bonus_coins"`
	TotalCoins int64     `db:"total_coins" json:"total_coins"`
	Price      int64     `db:"price" json:"price"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Order is one real-money purchase attempt of a coin package
type Order struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	UserID        uuid.UUID     `db:"user_id" json:"user_id"`
	PackageID     uuid.UUID     `db:"package_id" json:"package_id"`
	Amount        int64         `db:"amount" json:"amount"`
	CoinsCredited int64         `db:"coins_credited" json:"coins_credited"`
	Status        OrderStatus   `db:"status" json:"status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentRef    *string       `db:"payment_ref" json:"payment_ref,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
