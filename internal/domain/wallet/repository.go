package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository owns the wallets and wallet_transactions tables. Every
// balance mutation runs inside a transaction holding a FOR UPDATE lock on
// the wallet row, so a check against the loaded balance cannot race a
// concurrent mutation of the same wallet. The idempotency key carries a
// unique index as a backstop for callers reusing a key across wallets.
type Repository struct {
	db              *sqlx.DB
	defaultCapacity int64
}

// NewRepository creates wallet repository
func NewRepository(db *sqlx.DB, defaultCapacity int64) *Repository {
	return &Repository{db: db, defaultCapacity: defaultCapacity}
}

// GetOrCreate returns the user's wallet, creating it with a zero balance
// and the default capacity if it does not exist yet.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if err := r.ensure(ctx, r.db, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &w, nil
}

func (r *Repository) ensure(ctx context.Context, ext sqlx.ExtContext, userID uuid.UUID) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance, max_capacity, status)
		VALUES ($1, 0, $2, 'active')
		ON CONFLICT (user_id) DO NOTHING
	`, userID, r.defaultCapacity)
	return err
}

// lockWallet ensures the wallet row exists and locks it for the duration
// of the surrounding transaction.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if err := r.ensure(ctx, tx, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return &w, nil
}

func (r *Repository) keyExists(ctx context.Context, ext sqlx.ExtContext, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	var exists bool
	err := sqlx.GetContext(ctx, ext, &exists, `
		SELECT EXISTS (SELECT 1 FROM wallet_transactions WHERE idempotency_key = $1)
	`, key)
	return exists, err
}

// Credit adds coins to the wallet and appends an IN transaction in one
// atomic unit. A replayed idempotency key makes the call a no-op.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	return r.applyStandalone(ctx, userID, amount, DirectionIn, txType, opts)
}

// Debit removes coins from the wallet and appends an OUT transaction in
// one atomic unit. Fails when the wallet is frozen or the balance is
// insufficient; a replayed idempotency key makes the call a no-op.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	return r.applyStandalone(ctx, userID, amount, DirectionOut, txType, opts)
}

func (r *Repository) applyStandalone(ctx context.Context, userID uuid.UUID, amount int64, direction Direction, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	// Cheap short-circuit before opening a transaction. The authoritative
	// replay check runs again under the wallet row lock.
	if replayed, err := r.keyExists(ctx, r.db, opts.IdempotencyKey); err != nil {
		return nil, err
	} else if replayed {
		return r.GetOrCreate(ctx, userID)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := r.applyTx(ctx, tx, userID, amount, direction, txType, opts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return w, nil
}

// CreditTx applies a credit inside a caller-owned transaction, for
// operations that must commit a wallet mutation together with their own
// writes (order completion).
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	return r.applyTx(ctx, tx, userID, amount, DirectionIn, txType, opts)
}

// DebitTx applies a debit inside a caller-owned transaction (store
// purchase).
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	return r.applyTx(ctx, tx, userID, amount, DirectionOut, txType, opts)
}

func (r *Repository) applyTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, direction Direction, txType TransactionType, opts MutationOpts) (*Wallet, error) {
	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	// With the wallet row locked, concurrent mutations of this wallet are
	// serialized, so the key check cannot race another writer of the same
	// wallet.
	if replayed, err := r.keyExists(ctx, tx, opts.IdempotencyKey); err != nil {
		return nil, err
	} else if replayed {
		return w, nil
	}

	if !w.IsActive() {
		return nil, ErrWalletNotActive
	}

	var newBalance int64
	switch direction {
	case DirectionIn:
		newBalance = w.Balance + amount
		if newBalance > w.MaxCapacity {
			return nil, ErrCapacityExceeded
		}
	case DirectionOut:
		if w.Balance < amount {
			return nil, ErrInsufficientBalance
		}
		newBalance = w.Balance - amount
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = $2, updated_at = now() WHERE user_id = $1
	`, userID, newBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err := r.insertTransaction(ctx, tx, userID, amount, direction, txType, opts); err != nil {
		return nil, err
	}

	w.Balance = newBalance
	return w, nil
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, direction Direction, txType TransactionType, opts MutationOpts) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, direction, status, reference_id, idempotency_key, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New(), userID, string(txType), amount, string(direction), string(TransactionCompleted),
		nullable(opts.ReferenceID), nullable(opts.IdempotencyKey), nullable(opts.Description))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Idempotency key landed from another wallet's writer between
			// check and insert. The unit of work is aborted; the caller
			// should treat the mutation as already applied.
			return fmt.Errorf("duplicate idempotency key: %w", err)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SetStatus sets the wallet status, creating the wallet first if needed.
// No balance effect.
func (r *Repository) SetStatus(ctx context.Context, userID uuid.UUID, status Status) (*Wallet, error) {
	if err := r.ensure(ctx, r.db, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `
		UPDATE wallets SET status = $2, updated_at = now()
		WHERE user_id = $1
		RETURNING *
	`, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("set wallet status: %w", err)
	}
	return &w, nil
}

// ListTransactions returns a reverse-chronological page of the ledger and
// the total entry count for the wallet.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1
	`, userID); err != nil {
		return nil, 0, err
	}

	var items []*Transaction
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SumByDirection returns the transaction sum for one direction, used by
// reconciliation checks.
func (r *Repository) SumByDirection(ctx context.Context, userID uuid.UUID, direction Direction) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions
		WHERE user_id = $1 AND direction = $2
	`, userID, string(direction))
	return sum, err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
