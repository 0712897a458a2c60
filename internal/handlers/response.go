package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// RejectionResponse is the body returned when a coupon code is refused
type RejectionResponse struct {
	Valid   bool            `json:"valid"`
	Coupon  string          `json:"coupon,omitempty"`
	Reason  discount.Reason `json:"reason"`
	Message string          `json:"message"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}

// WriteRejection writes a coupon rejection. Unknown codes are 404, every
// policy refusal is 422.
func WriteRejection(w http.ResponseWriter, code string, reason discount.Reason, logger *slog.Logger) {
	status := http.StatusUnprocessableEntity
	if reason == discount.ReasonCodeNotFound {
		status = http.StatusNotFound
	}
	WriteJSON(w, status, RejectionResponse{
		Valid:   false,
		Coupon:  discount.NormalizeCode(code),
		Reason:  reason,
		Message: reason.Message(),
	}, logger)
}
