package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/domain/coupon"
)

type applyCouponRequest struct {
	Code string `json:"code"`
}

type applyCouponResponse struct {
	Code     string `json:"code"`
	Discount int    `json:"discount"`
}

// applyCoupon validates the submitted code and stores it against the
// session. On any failure the session's coupon is cleared: a rejected apply
// never leaves an earlier coupon silently attached.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.session(w, r)

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	cpn, err := h.coupons.Validate(ctx, req.Code)
	if err != nil {
		if clearErr := h.carts.ClearCoupon(ctx, sid); clearErr != nil {
			zctx.From(ctx).Error("clear coupon", zap.Error(clearErr))
		}
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			// One message for every negative case, by contract.
			writeError(w, http.StatusUnprocessableEntity, "this coupon code does not exist or is no longer valid")
			return
		}
		zctx.From(ctx).Error("validate coupon", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.carts.ApplyCoupon(ctx, sid, cpn.Code); err != nil {
		zctx.From(ctx).Error("apply coupon", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, applyCouponResponse{Code: cpn.Code, Discount: cpn.Discount})
}

// removeCoupon detaches any applied coupon from the session. Idempotent:
// removing when nothing is applied still succeeds.
func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.session(w, r)

	if err := h.carts.ClearCoupon(ctx, sid); err != nil {
		zctx.From(ctx).Error("clear coupon", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
