package discount

import (
	"github.com/go-faster/errors"
)

// Rejection reasons. Each one is a recoverable, shopper-facing condition.
var (
	ErrCodeNotFound          = errors.New("coupon code not found")
	ErrCodeDisabledOrExpired = errors.New("coupon is disabled or outside its validity window")
	ErrUsageExhausted        = errors.New("coupon usage limit reached")
	ErrNotFirstTimeEligible  = errors.New("coupon is only valid for first-time customers")
	ErrBelowMinimumOrder     = errors.New("order subtotal is below the coupon minimum")
)

// Reason is a stable, machine-readable rejection code.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonCodeNotFound         Reason = "code_not_found"
	ReasonDisabledOrExpired    Reason = "disabled_or_expired"
	ReasonUsageExhausted       Reason = "usage_exhausted"
	ReasonNotFirstTimeEligible Reason = "not_first_time_eligible"
	ReasonBelowMinimumOrder    Reason = "below_minimum_order"
)

// ReasonOf maps a rejection error (possibly wrapped) to its Reason.
// Errors that are not coupon rejections map to ReasonNone.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrCodeNotFound):
		return ReasonCodeNotFound
	case errors.Is(err, ErrCodeDisabledOrExpired):
		return ReasonDisabledOrExpired
	case errors.Is(err, ErrUsageExhausted):
		return ReasonUsageExhausted
	case errors.Is(err, ErrNotFirstTimeEligible):
		return ReasonNotFirstTimeEligible
	case errors.Is(err, ErrBelowMinimumOrder):
		return ReasonBelowMinimumOrder
	}
	return ReasonNone
}

// IsRejection reports whether err is one of the coupon rejection reasons.
func IsRejection(err error) bool {
	return ReasonOf(err) != ReasonNone
}

// Message returns the text shown to the shopper for a reason.
func (r Reason) Message() string {
	switch r {
	case ReasonCodeNotFound:
		return "Invalid promo code"
	case ReasonDisabledOrExpired:
		return "This promo code has expired or is no longer active"
	case ReasonUsageExhausted:
		return "This promo code has reached its usage limit"
	case ReasonNotFirstTimeEligible:
		return "This coupon is only valid for first-time customers"
	case ReasonBelowMinimumOrder:
		return "Your order does not meet the minimum amount for this code"
	}
	return ""
}
