package models

import (
	"time"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// MaxLineQuantity caps the quantity of a single cart line
const MaxLineQuantity = 10

// Cart is a shopper's in-progress basket
type Cart struct {
	ID         string            `json:"id"`
	CustomerID string            `json:"customerId,omitempty"`
	Lines      []Line            `json:"lines"`
	Promotion  *AppliedPromotion `json:"promotion,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// AppliedPromotion is the single coupon code attached to a cart
type AppliedPromotion struct {
	Code      string    `json:"code"`
	AppliedAt time.Time `json:"appliedAt"`
}

// CartSummary is a cart with its current pricing. When the applied code no
// longer qualifies the quote excludes it and PromotionDropped says why.
type CartSummary struct {
	Cart             Cart            `json:"cart"`
	Pricing          discount.Quote  `json:"pricing"`
	PromotionDropped discount.Reason `json:"promotionDropped,omitempty"`
	Message          string          `json:"message,omitempty"`
}
