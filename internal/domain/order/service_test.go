package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomstead/flowershop/internal/domain/coupon"
	"github.com/bloomstead/flowershop/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products map[string]product.Product
	err      error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, m.err
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error { return nil }

type mockValidator struct {
	coupon *coupon.Coupon
	err    error
}

func (m *mockValidator) Validate(_ context.Context, _ string) (*coupon.Coupon, error) {
	return m.coupon, m.err
}

type mockOrderRepo struct {
	created *Order
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.created = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*Order, error) {
	return m.created, nil
}

type mockPublisher struct {
	orderIDs []string
	err      error
}

func (m *mockPublisher) OrderCreated(_ context.Context, orderID string) error {
	m.orderIDs = append(m.orderIDs, orderID)
	return m.err
}

// --- Helpers ---

func catalog() map[string]product.Product {
	return map[string]product.Product{
		"roses": {
			ID: "roses", Name: "Dozen red roses", Slug: "dozen-red-roses",
			Price: decimal.RequireFromString("25.00"), Available: true,
		},
		"tulips": {
			ID: "tulips", Name: "Tulip bouquet", Slug: "tulip-bouquet",
			Price: decimal.RequireFromString("15.00"), Available: true,
		},
		"wilted": {
			ID: "wilted", Name: "Out of season", Slug: "out-of-season",
			Price: decimal.RequireFromString("5.00"), Available: false,
		},
	}
}

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		FirstName:  "Anna",
		LastName:   "Larina",
		Email:      "anna@example.com",
		Address:    "12 Garden Lane",
		PostalCode: "10115",
		City:       "Berlin",
		Lines: []Line{
			{ProductID: "roses", Quantity: 2},
			{ProductID: "tulips", Quantity: 1},
		},
	}
}

func TestService_PlaceOrder(t *testing.T) {
	t.Run("places order with snapshotted prices", func(t *testing.T) {
		orders := &mockOrderRepo{}
		events := &mockPublisher{}
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{err: coupon.ErrInvalidCoupon}, orders, events)

		o, err := svc.PlaceOrder(context.Background(), validRequest())
		require.NoError(t, err)
		require.NotNil(t, o)

		require.Len(t, o.Items, 2)
		assert.Equal(t, "Dozen red roses", o.Items[0].ProductName)
		assert.True(t, decimal.RequireFromString("65.00").Equal(o.Subtotal()))
		assert.Equal(t, 0, o.Discount)
		assert.Nil(t, o.CouponID)

		require.NotNil(t, orders.created)
		assert.Equal(t, o.ID, orders.created.ID)
	})

	t.Run("snapshots coupon discount onto the order", func(t *testing.T) {
		orders := &mockOrderRepo{}
		events := &mockPublisher{}
		validator := &mockValidator{coupon: &coupon.Coupon{
			ID: "c-20", Code: "SPRING20", Discount: 20, Active: true,
		}}
		svc := NewService(&mockProductRepo{products: catalog()}, validator, orders, events)

		req := validRequest()
		req.CouponCode = "SPRING20"

		o, err := svc.PlaceOrder(context.Background(), req)
		require.NoError(t, err)

		require.NotNil(t, o.CouponID)
		assert.Equal(t, "c-20", *o.CouponID)
		assert.Equal(t, 20, o.Discount)
		assert.True(t, decimal.RequireFromString("13.00").Equal(o.DiscountAmount()))
		assert.True(t, decimal.RequireFromString("52.00").Equal(o.Total()))
	})

	t.Run("lapsed coupon degrades to full price", func(t *testing.T) {
		orders := &mockOrderRepo{}
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{err: coupon.ErrInvalidCoupon}, orders, &mockPublisher{})

		req := validRequest()
		req.CouponCode = "EXPIRED"

		o, err := svc.PlaceOrder(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 0, o.Discount)
		assert.Nil(t, o.CouponID)
		assert.True(t, o.Subtotal().Equal(o.Total()))
	})

	t.Run("publishes order created event", func(t *testing.T) {
		events := &mockPublisher{}
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{err: coupon.ErrInvalidCoupon}, &mockOrderRepo{}, events)

		o, err := svc.PlaceOrder(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, []string{o.ID}, events.orderIDs)
	})

	t.Run("publish failure does not fail placement", func(t *testing.T) {
		events := &mockPublisher{err: assert.AnError}
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{err: coupon.ErrInvalidCoupon}, &mockOrderRepo{}, events)

		_, err := svc.PlaceOrder(context.Background(), validRequest())
		assert.NoError(t, err)
	})

	t.Run("rejects empty carts", func(t *testing.T) {
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{}, &mockOrderRepo{}, &mockPublisher{})

		req := validRequest()
		req.Lines = nil

		_, err := svc.PlaceOrder(context.Background(), req)
		assert.ErrorIs(t, err, ErrEmptyItems)
	})

	t.Run("rejects missing customer details", func(t *testing.T) {
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{}, &mockOrderRepo{}, &mockPublisher{})

		req := validRequest()
		req.Email = ""

		_, err := svc.PlaceOrder(context.Background(), req)
		assert.ErrorIs(t, err, ErrMissingCustomer)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{}, &mockOrderRepo{}, &mockPublisher{})

		req := validRequest()
		req.Lines[0].Quantity = 0

		_, err := svc.PlaceOrder(context.Background(), req)
		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
		assert.Equal(t, "roses", iqErr.ProductID)
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{}, &mockOrderRepo{}, &mockPublisher{})

		req := validRequest()
		req.Lines = []Line{{ProductID: "orchids", Quantity: 1}}

		_, err := svc.PlaceOrder(context.Background(), req)
		var pnfErr *ProductNotFoundError
		require.ErrorAs(t, err, &pnfErr)
		assert.Equal(t, "orchids", pnfErr.ProductID)
	})

	t.Run("rejects unavailable product", func(t *testing.T) {
		svc := NewService(&mockProductRepo{products: catalog()}, &mockValidator{}, &mockOrderRepo{}, &mockPublisher{})

		req := validRequest()
		req.Lines = []Line{{ProductID: "wilted", Quantity: 1}}

		_, err := svc.PlaceOrder(context.Background(), req)
		var pnfErr *ProductNotFoundError
		assert.ErrorAs(t, err, &pnfErr)
	})
}
