package discount

import "github.com/shopspring/decimal"

// Pricing holds the store-wide constants used to assemble an order total.
type Pricing struct {
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	StandardShippingFee   decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricing returns the storefront's standard rates: free shipping from
// ₹2000, ₹150 otherwise, 18% GST.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(2000),
		StandardShippingFee:   decimal.NewFromInt(150),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

// Quote is a fully assembled order total.
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingFee  decimal.Decimal `json:"shippingFee"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	CouponCode   string          `json:"couponCode,omitempty"`
	FreeShipping bool            `json:"freeShipping"`
}

// Quote assembles the order total for subtotal with an optional applied discount.
// The free-shipping threshold and the coupon's free-shipping flag are independent:
// either one zeroes the fee.
func (p Pricing) Quote(subtotal decimal.Decimal, applied *Discount) Quote {
	q := Quote{
		Subtotal:    subtotal,
		Discount:    decimal.Zero,
		ShippingFee: p.StandardShippingFee,
	}

	couponFreeShipping := false
	if applied != nil {
		q.Discount = decimal.Min(applied.Amount, subtotal)
		q.CouponCode = applied.Code
		couponFreeShipping = applied.FreeShipping
	}

	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) || couponFreeShipping {
		q.ShippingFee = decimal.Zero
		q.FreeShipping = true
	}

	taxable := subtotal.Sub(q.Discount).Add(q.ShippingFee)
	q.Tax = taxable.Mul(p.TaxRate).Round(2)
	q.Total = taxable.Add(q.Tax)
	return q
}
