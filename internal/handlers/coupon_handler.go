package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// couponChecker is the interface for coupon validation
type couponChecker interface {
	ValidateCoupon(ctx context.Context, customerID, code string, subtotal decimal.Decimal) (discount.Coupon, discount.Discount, error)
}

// ValidationResponse is returned for a code that can be applied
type ValidationResponse struct {
	Valid        bool            `json:"valid"`
	Coupon       string          `json:"coupon"`
	Description  string          `json:"description"`
	Type         discount.Type   `json:"type"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"freeShipping"`
}

// CouponHandler handles HTTP requests for coupon validation
type CouponHandler struct {
	checker couponChecker
	logger  *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(checker couponChecker, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		checker: checker,
		logger:  logger,
	}
}

// ValidateCoupon handles GET /api/coupon/{couponCode}?subtotal=&customerId=
// It reports whether the code applies to the subtotal and what it is worth.
// Nothing is redeemed.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "couponCode")

	raw := strings.TrimSpace(r.URL.Query().Get("subtotal"))
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "subtotal query parameter is required", h.logger)
		return
	}
	subtotal, err := decimal.NewFromString(raw)
	if err != nil || subtotal.IsNegative() {
		WriteError(w, http.StatusBadRequest, "subtotal must be a non-negative amount", h.logger)
		return
	}

	c, d, err := h.checker.ValidateCoupon(r.Context(), r.URL.Query().Get("customerId"), code, subtotal)
	if err != nil {
		writeServiceError(w, err, code, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, ValidationResponse{
		Valid:        true,
		Coupon:       c.Code,
		Description:  c.Description,
		Type:         c.Type,
		Discount:     d.Amount,
		FreeShipping: d.FreeShipping,
	}, h.logger)
}
