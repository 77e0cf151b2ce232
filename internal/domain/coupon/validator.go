package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator decides whether a coupon code is redeemable at the current time.
type Validator interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// RepoValidator implements Validator by looking up coupons from a Repository
// and checking their validity window.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate resolves the code case-insensitively and returns the coupon only
// when it is active and the current time falls inside its inclusive
// [ValidFrom, ValidTo] window. Every negative outcome is ErrInvalidCoupon.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := v.now()
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return nil, ErrInvalidCoupon
	}

	return c, nil
}
