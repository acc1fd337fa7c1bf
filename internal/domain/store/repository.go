package store

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

// NewRepository creates store repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Items

func (r *Repository) ListActiveItems(ctx context.Context) ([]*Item, error) {
	var items []*Item
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM store_items
		WHERE is_active = true
		ORDER BY price ASC
	`)
	return items, err
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, `SELECT * FROM store_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO store_items (id, name, description, price, type, duration_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.Price, string(item.Type), item.DurationDays, item.IsActive)
	return err
}

func (r *Repository) UpdateItem(ctx context.Context, item *Item) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE store_items SET
			name = $2, description = $3, price = $4, type = $5,
			duration_days = $6, is_active = $7, updated_at = now()
		WHERE id = $1
	`, item.ID, item.Name, item.Description, item.Price, string(item.Type), item.DurationDays, item.IsActive)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Entitlements

func (r *Repository) createEntitlementTx(ctx context.Context, tx *sqlx.Tx, e *Entitlement) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO store_entitlements (id, user_id, item_id, starts_at, ends_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`, e.ID, e.UserID, e.ItemID, e.StartsAt, e.EndsAt, string(e.Status))
	if err != nil {
		return fmt.Errorf("insert entitlement: %w", err)
	}
	return nil
}

func (r *Repository) GetEntitlement(ctx context.Context, id uuid.UUID) (*Entitlement, error) {
	var e Entitlement
	err := r.db.GetContext(ctx, &e, `SELECT * FROM store_entitlements WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repository) ListEntitlements(ctx context.Context, userID uuid.UUID, filter EntitlementFilter) ([]*Entitlement, error) {
	query := `
		SELECT e.* FROM store_entitlements e
		JOIN store_items i ON i.id = e.item_id
		WHERE e.user_id = $1
	`
	args := []interface{}{userID}

	if filter.ItemType != "" {
		args = append(args, string(filter.ItemType))
		query += fmt.Sprintf(" AND i.type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	query += " ORDER BY e.created_at DESC"

	var items []*Entitlement
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// HasActiveEntitlement reports whether the user holds an unexpired active
// grant for an item of the given type.
func (r *Repository) HasActiveEntitlement(ctx context.Context, userID uuid.UUID, itemType ItemType) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM store_entitlements e
			JOIN store_items i ON i.id = e.item_id
			WHERE e.user_id = $1
			  AND i.type = $2
			  AND e.status = 'active'
			  AND (e.ends_at IS NULL OR e.ends_at > now())
		)
	`, userID, string(itemType))
	return exists, err
}

// ExpireDue flips every active entitlement whose end time has passed.
// A single conditional update, so the sweep is idempotent and safe to run
// concurrently with purchases.
func (r *Repository) ExpireDue(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE store_entitlements SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND ends_at IS NOT NULL AND ends_at <= now()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
