package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon discount strategies.
type Type string

const (
	// TypePercentage takes a percentage of the subtotal, optionally capped by MaxDiscount.
	TypePercentage Type = "percentage"
	// TypeFixed takes a fixed currency amount, capped at the subtotal.
	TypeFixed Type = "fixed"
	// TypeFreeShipping waives the shipping fee and takes nothing off the subtotal.
	TypeFreeShipping Type = "free-shipping"
)

// Valid reports whether t is one of the known discount types.
func (t Type) Valid() bool {
	switch t {
	case TypePercentage, TypeFixed, TypeFreeShipping:
		return true
	}
	return false
}

// Coupon is a redemption rule as stored in the coupon registry.
type Coupon struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	Description    string              `json:"description"`
	Type           Type                `json:"type"`
	DiscountValue  decimal.Decimal     `json:"discountValue"`
	MaxDiscount    decimal.NullDecimal `json:"maxDiscount"`
	MinOrderAmount decimal.Decimal     `json:"minOrderAmount"`
	UsageLimit     *int                `json:"usageLimit"`
	UsedCount      int                 `json:"usedCount"`
	ValidFrom      time.Time           `json:"validFrom"`
	ValidUntil     time.Time           `json:"validUntil"`
	IsActive       bool                `json:"isActive"`
	FirstTimeOnly  bool                `json:"firstTimeOnly"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// NormalizeCode canonicalizes a coupon code for lookup: trimmed and upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the coupon has reached its usage limit.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// InWindow reports whether now lies inside [ValidFrom, ValidUntil].
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidUntil)
}

// DefaultDescription renders the shopper-facing label used when an admin leaves
// the description empty.
func (c *Coupon) DefaultDescription() string {
	switch c.Type {
	case TypePercentage:
		return c.DiscountValue.String() + "% off"
	case TypeFixed:
		return "₹" + c.DiscountValue.String() + " off"
	case TypeFreeShipping:
		return "Free shipping"
	}
	return ""
}

// Discount is the monetary effect of applying a coupon to a subtotal.
type Discount struct {
	Code         string          `json:"code"`
	Amount       decimal.Decimal `json:"amount"`
	FreeShipping bool            `json:"freeShipping"`
}
