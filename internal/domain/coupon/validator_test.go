package coupon

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	coupons map[string]*Coupon
	err     error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok || !c.Active {
		return nil, ErrInvalidCoupon
	}
	return c, nil
}

func (m *mockCouponRepo) FindByID(_ context.Context, id string) (*Coupon, error) {
	for _, c := range m.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrInvalidCoupon
}

func (m *mockCouponRepo) Create(_ context.Context, c *Coupon) error {
	m.coupons[strings.ToUpper(c.Code)] = c
	return nil
}

func TestRepoValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	weekAgo := fixedNow.Add(-7 * 24 * time.Hour)
	weekAhead := fixedNow.Add(7 * 24 * time.Hour)

	tests := []struct {
		name    string
		coupon  *Coupon
		code    string
		wantErr bool
	}{
		{
			name: "active coupon inside window validates",
			coupon: &Coupon{
				ID: "c1", Code: "SPRING10",
				ValidFrom: weekAgo, ValidTo: weekAhead,
				Discount: 10, Active: true,
			},
			code: "SPRING10",
		},
		{
			name: "lookup is case-insensitive",
			coupon: &Coupon{
				ID: "c1", Code: "SPRING10",
				ValidFrom: weekAgo, ValidTo: weekAhead,
				Discount: 10, Active: true,
			},
			code: "spring10",
		},
		{
			name:    "unknown code fails",
			code:    "BOGUS",
			wantErr: true,
		},
		{
			name: "expired coupon fails",
			coupon: &Coupon{
				ID: "c1", Code: "OLD",
				ValidFrom: weekAgo.Add(-24 * time.Hour), ValidTo: weekAgo,
				Discount: 10, Active: true,
			},
			code:    "OLD",
			wantErr: true,
		},
		{
			name: "not yet valid coupon fails",
			coupon: &Coupon{
				ID: "c1", Code: "SOON",
				ValidFrom: weekAhead, ValidTo: weekAhead.Add(24 * time.Hour),
				Discount: 10, Active: true,
			},
			code:    "SOON",
			wantErr: true,
		},
		{
			name: "deactivated coupon fails",
			coupon: &Coupon{
				ID: "c1", Code: "DISABLED",
				ValidFrom: weekAgo, ValidTo: weekAhead,
				Discount: 10, Active: false,
			},
			code:    "DISABLED",
			wantErr: true,
		},
		{
			name: "window boundaries are inclusive at valid_from",
			coupon: &Coupon{
				ID: "c1", Code: "EDGE",
				ValidFrom: fixedNow, ValidTo: weekAhead,
				Discount: 10, Active: true,
			},
			code: "EDGE",
		},
		{
			name: "window boundaries are inclusive at valid_to",
			coupon: &Coupon{
				ID: "c1", Code: "EDGE",
				ValidFrom: weekAgo, ValidTo: fixedNow,
				Discount: 10, Active: true,
			},
			code: "EDGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepo{coupons: map[string]*Coupon{}}
			if tt.coupon != nil {
				repo.coupons[strings.ToUpper(tt.coupon.Code)] = tt.coupon
			}

			v := NewRepoValidator(repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Validate(context.Background(), tt.code)

			if tt.wantErr {
				// Every negative outcome collapses into the same sentinel.
				require.ErrorIs(t, err, ErrInvalidCoupon)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.coupon.ID, got.ID)
			assert.Equal(t, tt.coupon.Discount, got.Discount)
		})
	}
}

func TestRepoValidator_RepoErrorIsWrapped(t *testing.T) {
	repo := &mockCouponRepo{err: assert.AnError}

	v := NewRepoValidator(repo)
	_, err := v.Validate(context.Background(), "ANY")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCoupon)
	assert.Contains(t, err.Error(), "lookup coupon")
}
