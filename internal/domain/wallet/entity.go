package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Status represents wallet status
type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
)

// TransactionType tags the cause of a balance change
type TransactionType string

const (
	TransactionTypePurchase      TransactionType = "purchase"
	TransactionTypeStorePurchase TransactionType = "store_purchase"
	TransactionTypeAdminAdjust   TransactionType = "admin_adjustment"
	TransactionTypeRefund        TransactionType = "refund"
)

// Direction of a transaction relative to the wallet
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// TransactionStatus represents transaction status. Credits and debits are
// applied synchronously, so entries are written as completed.
type TransactionStatus string

const TransactionCompleted TransactionStatus = "completed"

// Wallet is the per-user coin balance. One row per user, created lazily,
// never deleted. Balance is an integer count of coins.
type Wallet struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Balance     int64     `db:"balance" json:"balance"`
	MaxCapacity int64     `db:"max_capacity" json:"max_capacity"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the wallet accepts balance mutations
func (w *Wallet) IsActive() bool {
	return w.Status == StatusActive
}

// Transaction is an immutable ledger entry recording one balance change.
// For any wallet, balance == sum(in) - sum(out) over its transactions.
type Transaction struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	UserID         uuid.UUID         `db:"user_id" json:"user_id"`
	Type           TransactionType   `db:"type" json:"type"`
	Amount         int64             `db:"amount" json:"amount"`
	Direction      Direction         `db:"direction" json:"direction"`
	Status         TransactionStatus `db:"status" json:"status"`
	ReferenceID    *string           `db:"reference_id" json:"reference_id,omitempty"`
	IdempotencyKey *string           `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Description    *string           `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// MutationOpts carries optional attributes for a credit or debit
type MutationOpts struct {
	ReferenceID    string
	IdempotencyKey string
	Description    string
}
