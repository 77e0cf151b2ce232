package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/domain/coupon"
	"github.com/bloomstead/flowershop/internal/domain/product"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems      = errors.New("items required")
	ErrMissingCustomer = errors.New("customer details required")
)

// ProductNotFoundError indicates a requested product does not exist or is
// not available for purchase.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s", e.ProductID)
}

// Line is a requested product and quantity, before prices are resolved.
type Line struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	FirstName  string
	LastName   string
	Email      string
	Address    string
	PostalCode string
	City       string
	Lines      []Line
	// CouponCode is the code held in the customer's session, empty when no
	// coupon was applied.
	CouponCode string
}

// Service encapsulates order placement business logic.
type Service struct {
	products product.Repository
	coupons  coupon.Validator
	orders   Repository
	events   EventPublisher
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	events EventPublisher,
) *Service {
	return &Service{
		products: products,
		coupons:  coupons,
		orders:   orders,
		events:   events,
	}
}

// PlaceOrder validates the request, snapshots product prices, resolves the
// session coupon into a discount snapshot, persists the order, and submits
// the order-created event. A coupon that stopped being valid between apply
// and checkout degrades to no discount rather than failing the order.
// Event submission failures are logged and never surfaced: the order is
// placed regardless of notification outcome.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyItems
	}
	if req.FirstName == "" || req.Email == "" || req.Address == "" {
		return nil, ErrMissingCustomer
	}

	ids := make([]string, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}
		ids[i] = line.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, len(req.Lines))
	for i, line := range req.Lines {
		p, ok := byID[line.ProductID]
		if !ok || !p.Available {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		items[i] = Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    line.Quantity,
		}
	}

	o := &Order{
		ID:         uuid.New().String(),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		City:       req.City,
		Items:      items,
	}

	if req.CouponCode != "" {
		c, err := s.coupons.Validate(ctx, req.CouponCode)
		switch {
		case err == nil:
			id := c.ID
			o.CouponID = &id
			o.Discount = c.Discount
		case errors.Is(err, coupon.ErrInvalidCoupon):
			// Coupon lapsed since it was applied to the session. The order
			// proceeds at full price.
			zctx.From(ctx).Info("coupon no longer valid at checkout",
				zap.String("code", req.CouponCode))
		default:
			return nil, errors.Wrap(err, "validate coupon")
		}
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.events.OrderCreated(ctx, o.ID); err != nil {
		zctx.From(ctx).Error("publish order created",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	return o, nil
}
