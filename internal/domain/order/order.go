package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Item is a single line of an order: a quantity of one product at the price
// it had when the order was placed. The price is a snapshot and is never
// re-read from the live catalog.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Cost returns price multiplied by quantity for this line.
func (i Item) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed customer purchase. Monetary totals are always derived
// from Items and Discount, never stored: editing a line item changes the
// totals on the next read, and the snapshotted Discount keeps historical
// totals stable even if the referenced coupon is later edited or deleted.
type Order struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Address    string
	PostalCode string
	City       string
	Paid       bool
	// CouponID references the applied coupon, if any. The reference is weak:
	// it is nulled when the coupon is deleted, and pricing relies solely on
	// the Discount snapshot below.
	CouponID *string
	// Discount is the percentage captured at the moment the coupon was
	// applied, in [0, 100]. Later edits to the coupon do not change it.
	Discount  int
	Items     []Item
	CreatedAt time.Time
}

// Subtotal returns the sum of line costs before any discount.
// An order with no items has a subtotal of exactly zero.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Cost())
	}
	return sum
}

var hundred = decimal.NewFromInt(100)

// DiscountAmount returns the monetary value subtracted from the subtotal.
// Zero discount yields exactly zero; otherwise subtotal × discount ÷ 100,
// computed in decimal arithmetic and rounded to currency precision.
func (o *Order) DiscountAmount() decimal.Decimal {
	if o.Discount == 0 {
		return decimal.Zero
	}
	sub := o.Subtotal()
	return sub.Mul(decimal.NewFromInt(int64(o.Discount))).Div(hundred).Round(2)
}

// Total returns subtotal minus discount amount. With Discount held to
// [0, 100] upstream the result can never be negative, so no clamping is
// applied here.
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal().Sub(o.DiscountAmount())
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order and its items atomically.
	Create(ctx context.Context, o *Order) error
	// GetByID loads an order with its items. Returns ErrNotFound when the
	// order does not exist.
	GetByID(ctx context.Context, id string) (*Order, error)
}

// EventPublisher submits an order-created event for asynchronous processing.
// Submission is fire-and-forget: the consumer re-reads the order by id, and
// no delivery outcome flows back into order placement.
type EventPublisher interface {
	OrderCreated(ctx context.Context, orderID string) error
}
