package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidCoupon is returned when a coupon code does not resolve to a
// currently redeemable coupon. An unknown code, an expired or not-yet-valid
// window, and a deactivated coupon all collapse into this single result:
// callers present one generic failure message and cannot tell which
// condition failed.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Coupon is a named, time-bounded percentage discount authorization.
type Coupon struct {
	ID        string
	Code      string
	ValidFrom time.Time
	ValidTo   time.Time
	// Discount is a whole percentage in [0, 100]. The range is enforced at
	// the data-entry boundary, not here.
	Discount int
	Active   bool
}

// Repository provides lookup and creation of coupons.
type Repository interface {
	// FindByCode resolves a coupon by its code, case-insensitively,
	// considering only active coupons. Returns ErrInvalidCoupon when no
	// active coupon carries the code.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// FindByID resolves a coupon by its identifier regardless of active
	// state. Returns ErrInvalidCoupon when the coupon no longer exists.
	FindByID(ctx context.Context, id string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
}
