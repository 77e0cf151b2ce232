package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bloomstead/flowershop/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, first_name, last_name, email, address, postal_code, city, coupon_id, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, product_id, product_name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	getOrderSQL = `SELECT id, first_name, last_name, email, address, postal_code, city,
		paid, coupon_id, discount, created_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT product_id, product_name, price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order header and its items in one transaction. Only
// the inputs are stored; subtotal, discount amount, and total are derived on
// read and never written to the database.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.ID, o.FirstName, o.LastName, o.Email, o.Address, o.PostalCode, o.City,
		o.CouponID, o.Discount,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			o.ID, it.ProductID, it.ProductName, it.Price, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("creating item %q for order %q: %w", it.ProductID, o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID loads an order with its items. Returns order.ErrNotFound when no
// order carries the id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Address, &o.PostalCode,
		&o.City, &o.Paid, &o.CouponID, &o.Discount, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("scanning items for order %q: %w", id, err)
	}

	return &o, nil
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ProductID, &it.ProductName, &it.Price, &it.Quantity)
	return it, err
}
