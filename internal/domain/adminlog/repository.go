package adminlog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

// NewRepository creates admin log repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, a *Action) error {
	// pq sends []byte as bytea, so jsonb details go over as text
	var details interface{}
	if a.Details != nil {
		details = string(a.Details)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_actions (id, admin_id, action, target_id, target_type, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, a.ID, a.AdminID, a.Action, a.TargetID, a.TargetType, details)
	return err
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]*Action, int, error) {
	where := " WHERE true"
	var args []interface{}

	if filter.AdminID != nil {
		args = append(args, *filter.AdminID)
		where += fmt.Sprintf(" AND admin_id = $%d", len(args))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM admin_actions`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	var items []*Action
	err := r.db.SelectContext(ctx, &items, fmt.Sprintf(`
		SELECT * FROM admin_actions%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, limitPos, offsetPos), args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
