package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// Recorder observes validation outcomes and committed redemptions
type Recorder interface {
	CouponValidated(reason discount.Reason)
	CouponRedeemed(code string)
}

type nopRecorder struct{}

func (nopRecorder) CouponValidated(discount.Reason) {}
func (nopRecorder) CouponRedeemed(string)           {}

// Validator answers "does this code apply to this order" against a Store and
// records redemptions once an order is placed.
type Validator struct {
	store    Store
	recorder Recorder
}

// NewValidator creates a validator. A nil recorder disables observation.
func NewValidator(store Store, recorder Recorder) *Validator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Validator{store: store, recorder: recorder}
}

// Validate looks up code and runs the redeemability, minimum and discount checks.
// It never changes the coupon. Every shopper-facing outcome is recorded.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time, hasPriorOrders bool) (discount.Coupon, discount.Discount, error) {
	c, d, err := v.Peek(ctx, code, subtotal, now, hasPriorOrders)
	if err == nil || discount.IsRejection(err) {
		v.recorder.CouponValidated(discount.ReasonOf(err))
	}
	return c, d, err
}

// Peek runs the same checks as Validate without recording the outcome. It
// serves re-pricing of a code the shopper already applied.
func (v *Validator) Peek(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time, hasPriorOrders bool) (discount.Coupon, discount.Discount, error) {
	c, err := v.store.Get(ctx, code)
	if err != nil {
		return discount.Coupon{}, discount.Discount{}, err
	}

	d, err := discount.Evaluate(c, subtotal, now, hasPriorOrders)
	if err != nil {
		return c, discount.Discount{}, err
	}
	return c, d, nil
}

// Commit records one redemption of code at now. It fails with
// discount.ErrUsageExhausted when a concurrent order took the last use, and with
// discount.ErrCodeDisabledOrExpired when the coupon was switched off or its
// window closed after validation.
func (v *Validator) Commit(ctx context.Context, code string, now time.Time) (discount.Coupon, error) {
	c, err := v.store.Redeem(ctx, code, now)
	if err != nil {
		return discount.Coupon{}, err
	}
	v.recorder.CouponRedeemed(c.Code)
	return c, nil
}
