package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heritage-handlooms/checkout-api/internal/models"
	"github.com/heritage-handlooms/checkout-api/internal/service"
)

type createCartRequest struct {
	CustomerID string `json:"customerId"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type checkoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

// CartHandler handles cart HTTP requests
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// CreateCart handles POST /api/cart. The body is optional.
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req createCartRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	summary, err := h.carts.Create(r.Context(), req.CustomerID)
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, summary, h.logger)
}

// GetCart handles GET /api/cart/{cartId}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	summary, err := h.carts.Summary(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// AddItem handles POST /api/cart/{cartId}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	summary, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "cartId"), req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// SetQuantity handles PUT /api/cart/{cartId}/items/{productId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	var req setQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	summary, err := h.carts.SetQuantity(r.Context(), chi.URLParam(r, "cartId"), productID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// RemoveItem handles DELETE /api/cart/{cartId}/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	summary, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "cartId"), productID)
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// ApplyCoupon handles POST /api/cart/{cartId}/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	summary, err := h.carts.ApplyCoupon(r.Context(), chi.URLParam(r, "cartId"), req.Code)
	if err != nil {
		writeServiceError(w, err, req.Code, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// RemoveCoupon handles DELETE /api/cart/{cartId}/coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	summary, err := h.carts.RemoveCoupon(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Checkout handles POST /api/cart/{cartId}/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	order, err := h.carts.Checkout(r.Context(), chi.URLParam(r, "cartId"), req.PaymentMethod)
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.logger)
}
