package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/cart"
	"github.com/bloomstead/flowershop/internal/domain/coupon"
	"github.com/bloomstead/flowershop/internal/domain/order"
)

type cartLineResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Cost        string `json:"cost"`
}

type cartResponse struct {
	Items          []cartLineResponse `json:"items"`
	CouponCode     string             `json:"couponCode,omitempty"`
	Discount       int                `json:"discount"`
	Subtotal       string             `json:"subtotal"`
	DiscountAmount string             `json:"discountAmount"`
	Total          string             `json:"total"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// getCart renders the session cart with a pricing preview. Totals are
// derived on every read from current catalog prices; nothing here is a
// snapshot until the order is placed.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.session(w, r)

	c, err := h.carts.Get(ctx, sid)
	if err != nil {
		zctx.From(ctx).Error("get cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp, err := h.priceCart(r, c, sid)
	if err != nil {
		zctx.From(ctx).Error("price cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.session(w, r)

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "productId and a quantity of at least 1 are required")
		return
	}

	// Reject unknown products at the boundary.
	found, err := h.products.GetByIDs(ctx, []string{req.ProductID})
	if err != nil {
		zctx.From(ctx).Error("check product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(found) == 0 || !found[0].Available {
		writeError(w, http.StatusUnprocessableEntity, "product "+req.ProductID+" not found")
		return
	}

	if err := h.carts.AddItem(ctx, sid, req.ProductID, req.Quantity); err != nil {
		zctx.From(ctx).Error("add cart item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.session(w, r)
	productID := chi.URLParam(r, "productID")

	if err := h.carts.RemoveItem(ctx, sid, productID); err != nil {
		zctx.From(ctx).Error("remove cart item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// priceCart resolves cart lines against the catalog and derives preview
// totals via the same pricing rules orders use. A session coupon that is no
// longer valid previews as no discount.
func (h *Handler) priceCart(r *http.Request, c *cart.Cart, sid string) (*cartResponse, error) {
	ctx := r.Context()

	resp := &cartResponse{Items: make([]cartLineResponse, 0, len(c.Lines))}

	ids := make([]string, len(c.Lines))
	for i, line := range c.Lines {
		ids[i] = line.ProductID
	}

	preview := order.Order{}
	if len(ids) > 0 {
		products, err := h.products.GetByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "get products")
		}
		byID := make(map[string]int, len(products))
		for i, p := range products {
			byID[p.ID] = i
		}

		for _, line := range c.Lines {
			i, ok := byID[line.ProductID]
			if !ok {
				// Product vanished from the catalog since it was added.
				continue
			}
			preview.Items = append(preview.Items, order.Item{
				ProductID:   products[i].ID,
				ProductName: products[i].Name,
				Price:       products[i].Price,
				Quantity:    line.Quantity,
			})
		}
	}

	code, err := h.carts.CouponCode(ctx, sid)
	if err != nil {
		return nil, errors.Wrap(err, "get coupon code")
	}
	if code != "" {
		cpn, err := h.coupons.Validate(ctx, code)
		switch {
		case err == nil:
			resp.CouponCode = cpn.Code
			preview.Discount = cpn.Discount
		case errors.Is(err, coupon.ErrInvalidCoupon):
			// Lapsed since apply; preview at full price.
		default:
			return nil, errors.Wrap(err, "validate coupon")
		}
	}

	for _, it := range preview.Items {
		resp.Items = append(resp.Items, cartLineResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price.StringFixed(2),
			Quantity:    it.Quantity,
			Cost:        it.Cost().StringFixed(2),
		})
	}
	resp.Discount = preview.Discount
	resp.Subtotal = preview.Subtotal().StringFixed(2)
	resp.DiscountAmount = preview.DiscountAmount().StringFixed(2)
	resp.Total = preview.Total().StringFixed(2)

	return resp, nil
}
