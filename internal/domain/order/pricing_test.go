package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOrder_Subtotal(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  string
	}{
		{
			name:  "no items",
			items: nil,
			want:  "0",
		},
		{
			name: "single line",
			items: []Item{
				{ProductID: "p1", Price: money("19.99"), Quantity: 3},
			},
			want: "59.97",
		},
		{
			name: "multiple lines",
			items: []Item{
				{ProductID: "p1", Price: money("25.00"), Quantity: 2},
				{ProductID: "p2", Price: money("15.00"), Quantity: 1},
			},
			want: "65.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Items: tt.items}
			assert.True(t, money(tt.want).Equal(o.Subtotal()),
				"want %s, got %s", tt.want, o.Subtotal())
		})
	}
}

func TestOrder_DiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		items    []Item
		discount int
		want     string
	}{
		{
			name: "zero discount is exactly zero",
			items: []Item{
				{ProductID: "p1", Price: money("33.33"), Quantity: 3},
			},
			discount: 0,
			want:     "0",
		},
		{
			name: "ten percent of a round subtotal",
			items: []Item{
				{ProductID: "p1", Price: money("100.00"), Quantity: 1},
			},
			discount: 10,
			want:     "10.00",
		},
		{
			name: "percentage that needs rounding to cents",
			items: []Item{
				{ProductID: "p1", Price: money("9.99"), Quantity: 1},
			},
			discount: 15,
			want:     "1.50", // 1.4985 rounds to currency precision
		},
		{
			name:     "empty order discounts nothing",
			items:    nil,
			discount: 50,
			want:     "0",
		},
		{
			name: "full discount equals subtotal",
			items: []Item{
				{ProductID: "p1", Price: money("42.50"), Quantity: 2},
			},
			discount: 100,
			want:     "85.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Items: tt.items, Discount: tt.discount}
			got := o.DiscountAmount()
			assert.True(t, money(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestOrder_Total(t *testing.T) {
	t.Run("total equals subtotal when discount is zero", func(t *testing.T) {
		o := &Order{Items: []Item{
			{ProductID: "p1", Price: money("12.34"), Quantity: 5},
		}}
		assert.True(t, o.Subtotal().Equal(o.Total()))
	})

	t.Run("checkout scenario", func(t *testing.T) {
		// Two line items and a 20% coupon.
		o := &Order{
			Items: []Item{
				{ProductID: "roses", Price: money("25.00"), Quantity: 2},
				{ProductID: "tulips", Price: money("15.00"), Quantity: 1},
			},
			Discount: 20,
		}
		assert.True(t, money("65.00").Equal(o.Subtotal()), "subtotal %s", o.Subtotal())
		assert.True(t, money("13.00").Equal(o.DiscountAmount()), "discount %s", o.DiscountAmount())
		assert.True(t, money("52.00").Equal(o.Total()), "total %s", o.Total())
	})

	t.Run("full discount yields zero, never negative", func(t *testing.T) {
		o := &Order{
			Items:    []Item{{ProductID: "p1", Price: money("10.00"), Quantity: 1}},
			Discount: 100,
		}
		assert.True(t, o.Total().IsZero())
	})

	t.Run("empty order is all zeros", func(t *testing.T) {
		o := &Order{}
		assert.True(t, o.Subtotal().IsZero())
		assert.True(t, o.DiscountAmount().IsZero())
		assert.True(t, o.Total().IsZero())
	})

	t.Run("totals are recomputed after item edits", func(t *testing.T) {
		o := &Order{Items: []Item{
			{ProductID: "p1", Price: money("10.00"), Quantity: 1},
		}}
		before := o.Total()
		o.Items[0].Quantity = 2
		assert.False(t, before.Equal(o.Total()))
		assert.True(t, money("20.00").Equal(o.Total()))
	})

	t.Run("discount snapshot survives coupon removal", func(t *testing.T) {
		// The coupon reference going away must not change the total:
		// pricing reads only the snapshotted percentage.
		couponID := "c1"
		o := &Order{
			Items: []Item{
				{ProductID: "p1", Price: money("40.00"), Quantity: 1},
			},
			CouponID: &couponID,
			Discount: 15,
		}
		before := o.Total()
		o.CouponID = nil
		assert.True(t, before.Equal(o.Total()))
		assert.True(t, money("34.00").Equal(o.Total()))
	})
}
