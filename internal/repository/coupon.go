package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bloomstead/flowershop/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, valid_from, valid_to, discount, active
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	getCouponByIDSQL = `SELECT id, code, valid_from, valid_to, discount, active
		FROM coupons WHERE id = $1`

	insertCouponSQL = `INSERT INTO coupons (id, code, valid_from, valid_to, discount, active)
		VALUES ($1, $2, $3, $4, $5, $6)`

	upsertCouponSQL = `INSERT INTO coupons (id, code, valid_from, valid_to, discount, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ((UPPER(code))) DO UPDATE
		SET valid_from = EXCLUDED.valid_from, valid_to = EXCLUDED.valid_to,
			discount = EXCLUDED.discount, active = EXCLUDED.active`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code. The query applies
// UPPER() on both sides, so the lookup is case-insensitive.
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// FindByID looks up a coupon by its identifier, including inactive ones.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon %q: %w", id, err)
	}
	return &c, nil
}

// Create persists a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		c.ID, c.Code, c.ValidFrom, c.ValidTo, c.Discount, c.Active,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Upsert inserts a coupon or refreshes an existing one matched by code.
// Used by seeding and bulk ingest.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		c.ID, c.Code, c.ValidFrom, c.ValidTo, c.Discount, c.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.ValidFrom, &c.ValidTo, &c.Discount, &c.Active)
	return c, err
}
