package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/smartstore/internal/domain/promo"
)

const (
	findPromoByCodeSQL = `SELECT code, percent, min_subtotal, description, expires_at, active
		FROM promo_codes WHERE code = $1`

	upsertPromoSQL = `INSERT INTO promo_codes (code, percent, min_subtotal, description, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			percent = EXCLUDED.percent,
			min_subtotal = EXCLUDED.min_subtotal,
			description = EXCLUDED.description,
			expires_at = EXCLUDED.expires_at,
			active = EXCLUDED.active`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode returns the promo rule registered under the given code.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, findPromoByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find promo %q", code)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find promo %q", code)
	}
	return &rule, nil
}

// Upsert inserts or updates a promo rule. Used by the ingest and seed tools.
func (r *PromoRepository) Upsert(ctx context.Context, rule promo.Rule) error {
	_, err := r.pool.Exec(ctx, upsertPromoSQL,
		rule.Code, rule.Percent, rule.MinSubtotal,
		rule.Description, rule.ExpiresAt, rule.Active,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert promo %q", rule.Code)
	}
	return nil
}

func scanPromo(row pgx.CollectableRow) (promo.Rule, error) {
	var rule promo.Rule
	err := row.Scan(
		&rule.Code, &rule.Percent, &rule.MinSubtotal,
		&rule.Description, &rule.ExpiresAt, &rule.Active,
	)
	return rule, err
}
