package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/domain/coupon"
)

type createCouponRequest struct {
	Code      string    `json:"code"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
	Discount  int       `json:"discount"`
	Active    bool      `json:"active"`
}

type couponResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
	Discount  int       `json:"discount"`
	Active    bool      `json:"active"`
}

// createCoupon persists a new coupon. The discount range is enforced here,
// at the data-entry boundary; downstream pricing assumes it already holds.
func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.Code == "":
		writeError(w, http.StatusBadRequest, "code is required")
		return
	case req.Discount < 0 || req.Discount > 100:
		writeError(w, http.StatusBadRequest, "discount must be between 0 and 100")
		return
	case !req.ValidTo.After(req.ValidFrom):
		writeError(w, http.StatusBadRequest, "validTo must be after validFrom")
		return
	}

	c := &coupon.Coupon{
		ID:        uuid.New().String(),
		Code:      req.Code,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
		Discount:  req.Discount,
		Active:    req.Active,
	}

	if err := h.couponRepo.Create(ctx, c); err != nil {
		zctx.From(ctx).Error("create coupon", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, couponResponse{
		ID:        c.ID,
		Code:      c.Code,
		ValidFrom: c.ValidFrom,
		ValidTo:   c.ValidTo,
		Discount:  c.Discount,
		Active:    c.Active,
	})
}
