package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/domain/order"
)

type placeOrderRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

type orderItemResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	FirstName      string              `json:"firstName"`
	LastName       string              `json:"lastName"`
	Email          string              `json:"email"`
	Paid           bool                `json:"paid"`
	Discount       int                 `json:"discount"`
	Items          []orderItemResponse `json:"items"`
	Subtotal       string              `json:"subtotal"`
	DiscountAmount string              `json:"discountAmount"`
	Total          string              `json:"total"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price.StringFixed(2),
			Quantity:    it.Quantity,
		}
	}
	// The three money fields are derived right here, on every render.
	return orderResponse{
		ID:             o.ID,
		FirstName:      o.FirstName,
		LastName:       o.LastName,
		Email:          o.Email,
		Paid:           o.Paid,
		Discount:       o.Discount,
		Items:          items,
		Subtotal:       o.Subtotal().StringFixed(2),
		DiscountAmount: o.DiscountAmount().StringFixed(2),
		Total:          o.Total().StringFixed(2),
	}
}

// placeOrder turns the session cart into a placed order and clears the
// session's cart and coupon on success.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.session(w, r)

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.Get(ctx, sid)
	if err != nil {
		zctx.From(ctx).Error("get cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	code, err := h.carts.CouponCode(ctx, sid)
	if err != nil {
		zctx.From(ctx).Error("get coupon code", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	lines := make([]order.Line, len(c.Lines))
	for i, line := range c.Lines {
		lines[i] = order.Line{ProductID: line.ProductID, Quantity: line.Quantity}
	}

	o, err := h.orders.PlaceOrder(ctx, order.PlaceOrderRequest{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		City:       req.City,
		Lines:      lines,
		CouponCode: code,
	})
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	// The purchase is complete; the session starts fresh. Failures here do
	// not undo the placed order.
	if err := h.carts.Clear(ctx, sid); err != nil {
		zctx.From(ctx).Error("clear cart after order", zap.Error(err))
	}
	if err := h.carts.ClearCoupon(ctx, sid); err != nil {
		zctx.From(ctx).Error("clear coupon after order", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "orderID")

	o, err := h.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		zctx.From(ctx).Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// writeOrderError maps order placement errors onto HTTP responses.
func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, order.ErrMissingCustomer):
		writeError(w, http.StatusBadRequest, "first name, email, and address are required")
	default:
		var iqErr *order.InvalidQuantityError
		var pnfErr *order.ProductNotFoundError
		switch {
		case errors.As(err, &iqErr):
			writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		case errors.As(err, &pnfErr):
			writeError(w, http.StatusUnprocessableEntity, pnfErr.Error())
		default:
			zctx.From(r.Context()).Error("place order", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}
