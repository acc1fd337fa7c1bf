package coins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

// NewRepository creates coins repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Packages

func (r *Repository) ListActivePackages(ctx context.Context) ([]*Package, error) {
	var items []*Package
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM coin_packages
		WHERE is_active = true
		ORDER BY base_coins ASC
	`)
	return items, err
}

func (r *Repository) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	var p Package
	err := r.db.GetContext(ctx, &p, `SELECT * FROM coin_packages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) getPackageTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Package, error) {
	var p Package
	err := tx.GetContext(ctx, &p, `SELECT * FROM coin_packages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreatePackage(ctx context.Context, p *Package) error {
	query := `
		INSERT INTO coin_packages (id, name, base_coins, bonus_coins, total_coins, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.BaseCoins, p.BonusCoins, p.TotalCoins, p.Price, p.IsActive)
	return err
}

func (r *Repository) UpdatePackage(ctx context.Context, p *Package) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE coin_packages SET
			name = $2, base_coins = $3, bonus_coins = $4, total_coins = $5,
			price = $6, is_active = $7, updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.BaseCoins, p.BonusCoins, p.TotalCoins, p.Price, p.IsActive)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// Orders

func (r *Repository) CreateOrder(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO coin_orders (id, user_id, package_id, amount, coins_credited, status, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.UserID, o.PackageID, o.Amount, o.CoinsCredited, string(o.Status), string(o.PaymentMethod))
	return err
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `SELECT * FROM coin_orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// getOrderForUpdate locks the order row for the duration of the
// surrounding transaction, serializing concurrent callbacks for the same
// order.
func (r *Repository) getOrderForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Order, error) {
	var o Order
	err := tx.GetContext(ctx, &o, `SELECT * FROM coin_orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// markOrderTerminal moves a pending order to its terminal status. The
// status predicate makes the transition conditional even if the caller's
// lock were to slip.
func (r *Repository) markOrderTerminal(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status OrderStatus, coinsCredited int64, paymentRef string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE coin_orders SET
			status = $2, coins_credited = $3, payment_ref = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, string(status), coinsCredited, nullableString(paymentRef))
	if err != nil {
		return fmt.Errorf("mark order %s: %w", status, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM coin_orders WHERE user_id = $1
	`, userID); err != nil {
		return nil, 0, err
	}

	var items []*Order
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM coin_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
