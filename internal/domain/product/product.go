package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is the
// current catalog price; orders snapshot it at placement time and never read
// it back from here.
type Product struct {
	ID        string
	Name      string
	Slug      string
	Price     decimal.Decimal
	Available bool
}

// Repository defines read and seed operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
}
