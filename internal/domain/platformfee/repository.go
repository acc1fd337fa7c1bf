package platformfee

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

// NewRepository creates platform fee repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, fee *Fee) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO platform_fees (id, contract_id, amount, percent, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, fee.ID, fee.ContractID, fee.Amount, fee.Percent)
	return err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Fee, error) {
	var fee Fee
	err := r.db.GetContext(ctx, &fee, `SELECT * FROM platform_fees WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *Repository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*Fee, error) {
	var fees []*Fee
	err := r.db.SelectContext(ctx, &fees, `
		SELECT * FROM platform_fees
		WHERE contract_id = $1
		ORDER BY created_at DESC
	`, contractID)
	return fees, err
}

func (r *Repository) Total(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM platform_fees`)
	return total, err
}

// Stats aggregates the fee log, optionally bounded by [from, to)
func (r *Repository) Stats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	where := ""
	var args []interface{}
	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	var stats Stats
	totals := struct {
		Total int64 `db:"total"`
		Count int64 `db:"count"`
	}{}
	err := r.db.GetContext(ctx, &totals, `
		SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM platform_fees WHERE true`+where, args...)
	if err != nil {
		return nil, err
	}
	stats.Total = totals.Total
	stats.Count = totals.Count

	err = r.db.SelectContext(ctx, &stats.ByDate, `
		SELECT to_char(created_at::date, 'YYYY-MM-DD') AS date,
		       COALESCE(SUM(amount), 0) AS total,
		       COUNT(*) AS count
		FROM platform_fees WHERE true`+where+`
		GROUP BY created_at::date
		ORDER BY created_at::date ASC`, args...)
	if err != nil {
		return nil, err
	}
	if stats.ByDate == nil {
		stats.ByDate = []DateTotal{}
	}
	return &stats, nil
}
