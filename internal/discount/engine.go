// Package discount classifies coupons as redeemable and computes their effect
// on an order total. Everything here is a pure function of its inputs; recording
// a redemption is the coupon registry's job.
package discount

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Check returns nil if the coupon can be redeemed at now by a customer with or
// without prior completed orders, or the reason it cannot.
//
// Exhaustion is checked first so an exhausted coupon reports ErrUsageExhausted
// whatever its window or active flag.
func Check(c Coupon, now time.Time, hasPriorOrders bool) error {
	if c.Exhausted() {
		return ErrUsageExhausted
	}
	if !c.IsActive || !c.InWindow(now) {
		return ErrCodeDisabledOrExpired
	}
	if c.FirstTimeOnly && hasPriorOrders {
		return ErrNotFirstTimeEligible
	}
	return nil
}

// IsRedeemable is the boolean form of Check.
func IsRedeemable(c Coupon, now time.Time, hasPriorOrders bool) bool {
	return Check(c, now, hasPriorOrders) == nil
}

// CheckMinimum rejects subtotals below the coupon's minimum order amount.
func CheckMinimum(c Coupon, subtotal decimal.Decimal) error {
	if subtotal.LessThan(c.MinOrderAmount) {
		return errors.Wrapf(ErrBelowMinimumOrder, "minimum ₹%s required", c.MinOrderAmount.String())
	}
	return nil
}

// ComputeDiscount returns the discount a redeemable coupon grants on subtotal.
// Callers must run Check and CheckMinimum first.
func ComputeDiscount(c Coupon, subtotal decimal.Decimal) Discount {
	d := Discount{Code: c.Code, Amount: decimal.Zero}

	switch c.Type {
	case TypeFixed:
		d.Amount = c.DiscountValue
	case TypePercentage:
		d.Amount = subtotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscount.Valid && d.Amount.GreaterThan(c.MaxDiscount.Decimal) {
			d.Amount = c.MaxDiscount.Decimal
		}
	case TypeFreeShipping:
		d.FreeShipping = true
	}

	// a discount may never exceed the subtotal
	d.Amount = decimal.Min(d.Amount, subtotal)
	if d.Amount.IsNegative() {
		d.Amount = decimal.Zero
	}
	return d
}

// Evaluate runs Check, CheckMinimum and ComputeDiscount in order.
func Evaluate(c Coupon, subtotal decimal.Decimal, now time.Time, hasPriorOrders bool) (Discount, error) {
	if err := Check(c, now, hasPriorOrders); err != nil {
		return Discount{}, err
	}
	if err := CheckMinimum(c, subtotal); err != nil {
		return Discount{}, err
	}
	return ComputeDiscount(c, subtotal), nil
}
