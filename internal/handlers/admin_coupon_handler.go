package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/heritage-handlooms/checkout-api/internal/coupon"
	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// couponRegistry is the admin surface of the coupon registry
type couponRegistry interface {
	Create(ctx context.Context, in coupon.Input) (discount.Coupon, error)
	Get(ctx context.Context, id string) (discount.Coupon, error)
	Update(ctx context.Context, id string, in coupon.Input) (discount.Coupon, error)
	Toggle(ctx context.Context, id string) (discount.Coupon, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f coupon.Filter) ([]discount.Coupon, error)
	Stats(ctx context.Context) (coupon.Stats, error)
	Status(c discount.Coupon) coupon.Status
}

// AdminCoupon is a coupon with its derived lifecycle status
type AdminCoupon struct {
	discount.Coupon
	Status coupon.Status `json:"status"`
}

// AdminCouponHandler serves the coupon management routes
type AdminCouponHandler struct {
	registry couponRegistry
	logger   *slog.Logger
}

// NewAdminCouponHandler creates a new admin coupon handler
func NewAdminCouponHandler(registry couponRegistry, logger *slog.Logger) *AdminCouponHandler {
	return &AdminCouponHandler{
		registry: registry,
		logger:   logger,
	}
}

// List handles GET /api/admin/coupons?search=&status=&type=
func (h *AdminCouponHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := coupon.Filter{
		Search: q.Get("search"),
		Status: coupon.Status(strings.ToLower(q.Get("status"))),
		Type:   discount.Type(strings.ToLower(q.Get("type"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		WriteError(w, http.StatusBadRequest, "Unknown status filter", h.logger)
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		WriteError(w, http.StatusBadRequest, "Unknown type filter", h.logger)
		return
	}

	coupons, err := h.registry.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}

	out := make([]AdminCoupon, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, h.withStatus(c))
	}
	WriteJSON(w, http.StatusOK, out, h.logger)
}

// Stats handles GET /api/admin/coupons/stats
func (h *AdminCouponHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, stats, h.logger)
}

// GenerateCode handles POST /api/admin/coupons/generate-code
func (h *AdminCouponHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := coupon.GenerateCode()
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"code": code}, h.logger)
}

// Create handles POST /api/admin/coupons
func (h *AdminCouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	c, err := h.registry.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, in.Code, h.logger)
		return
	}
	h.logger.Info("coupon created", "coupon_id", c.ID, "coupon", c.Code)
	WriteJSON(w, http.StatusCreated, h.withStatus(c), h.logger)
}

// Get handles GET /api/admin/coupons/{couponId}
func (h *AdminCouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Get(r.Context(), chi.URLParam(r, "couponId"))
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, h.withStatus(c), h.logger)
}

// Update handles PUT /api/admin/coupons/{couponId}
func (h *AdminCouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	c, err := h.registry.Update(r.Context(), chi.URLParam(r, "couponId"), in)
	if err != nil {
		writeServiceError(w, err, in.Code, h.logger)
		return
	}
	h.logger.Info("coupon updated", "coupon_id", c.ID, "coupon", c.Code)
	WriteJSON(w, http.StatusOK, h.withStatus(c), h.logger)
}

// Toggle handles POST /api/admin/coupons/{couponId}/toggle
func (h *AdminCouponHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Toggle(r.Context(), chi.URLParam(r, "couponId"))
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	h.logger.Info("coupon toggled", "coupon_id", c.ID, "coupon", c.Code, "active", c.IsActive)
	WriteJSON(w, http.StatusOK, h.withStatus(c), h.logger)
}

// Delete handles DELETE /api/admin/coupons/{couponId}
func (h *AdminCouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "couponId")
	if err := h.registry.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	h.logger.Info("coupon deleted", "coupon_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// decodeInput reads a coupon record from the body. It writes the 400 itself.
func (h *AdminCouponHandler) decodeInput(w http.ResponseWriter, r *http.Request) (coupon.Input, bool) {
	var rec coupon.Record
	if err := decodeJSON(w, r, &rec); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return coupon.Input{}, false
	}

	in, err := rec.Input()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return coupon.Input{}, false
	}
	return in, true
}

func (h *AdminCouponHandler) withStatus(c discount.Coupon) AdminCoupon {
	return AdminCoupon{Coupon: c, Status: h.registry.Status(c)}
}
