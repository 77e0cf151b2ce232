// Package handler exposes the storefront HTTP API: catalog, session cart,
// coupon application, order placement, and admin coupon management.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bloomstead/flowershop/internal/cart"
	"github.com/bloomstead/flowershop/internal/domain/coupon"
	"github.com/bloomstead/flowershop/internal/domain/order"
	"github.com/bloomstead/flowershop/internal/domain/product"
)

// sessionCookie names the browser session cookie carrying the opaque id the
// cart and coupon stores are keyed by. Coupon ids never travel to clients;
// only the code string crosses the boundary.
const sessionCookie = "shop_session"

// Handler holds the dependencies for all storefront endpoints.
type Handler struct {
	products   product.Repository
	coupons    coupon.Validator
	couponRepo coupon.Repository
	carts      cart.Store
	orders     *order.Service
	orderRepo  order.Repository
	sessionTTL time.Duration
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	coupons coupon.Validator,
	couponRepo coupon.Repository,
	carts cart.Store,
	orders *order.Service,
	orderRepo order.Repository,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		products:   products,
		coupons:    coupons,
		couponRepo: couponRepo,
		carts:      carts,
		orders:     orders,
		orderRepo:  orderRepo,
		sessionTTL: sessionTTL,
	}
}

// Routes mounts all storefront endpoints. The admin subtree is protected by
// the given auth middleware.
func (h *Handler) Routes(adminAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/items", h.addCartItem)
		r.Delete("/items/{productID}", h.removeCartItem)
	})

	r.Route("/coupon", func(r chi.Router) {
		r.Post("/apply", h.applyCoupon)
		r.Post("/remove", h.removeCoupon)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/{orderID}", h.getOrder)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuth)
		r.Post("/coupons", h.createCoupon)
	})

	return r
}

// session returns the request's session id, minting a cookie when absent.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Code: code, Message: message})
}
