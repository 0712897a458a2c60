package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/heritage-handlooms/checkout-api/internal/coupon"
	"github.com/heritage-handlooms/checkout-api/internal/discount"
	"github.com/heritage-handlooms/checkout-api/internal/service"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// productIDParam parses the {productId} URL parameter
func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "productId")), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps service, registry and coupon errors to responses.
// code is the coupon code involved, if any.
func writeServiceError(w http.ResponseWriter, err error, code string, logger *slog.Logger) {
	if reason := discount.ReasonOf(err); reason != discount.ReasonNone {
		logger.Info("coupon rejected", "coupon", code, "reason", reason)
		WriteRejection(w, code, reason, logger)
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrEmptyCouponCode),
		errors.Is(err, coupon.ErrInvalidCoupon):
		WriteError(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), logger)
	case errors.Is(err, coupon.ErrCouponNotFound):
		WriteError(w, http.StatusNotFound, "Coupon not found", logger)
	case errors.Is(err, coupon.ErrDuplicateCode):
		WriteError(w, http.StatusConflict, "A coupon with this code already exists", logger)
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
	}
}
