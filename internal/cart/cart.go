// Package cart holds the session-scoped shopping cart: product quantities
// and the applied coupon code, keyed by an opaque session identifier.
package cart

import "context"

// Line is one product and its quantity in the cart.
type Line struct {
	ProductID string
	Quantity  int
}

// Cart is the current contents of one session's cart.
type Cart struct {
	Lines []Line
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Store persists carts and applied coupon codes per session. Implementations
// must make ClearCoupon idempotent: clearing when nothing is applied is a
// no-op, not an error.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	// AddItem increments the quantity of the given product by quantity.
	AddItem(ctx context.Context, sessionID, productID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID, productID string) error
	Clear(ctx context.Context, sessionID string) error

	// ApplyCoupon stores the validated code against the session.
	ApplyCoupon(ctx context.Context, sessionID, code string) error
	// CouponCode returns the applied code, or "" when none is applied.
	CouponCode(ctx context.Context, sessionID string) (string, error)
	ClearCoupon(ctx context.Context, sessionID string) error
}
