package coupon

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

var (
	// ErrCouponNotFound is returned by id-based lookups. Code lookups return
	// discount.ErrCodeNotFound so shoppers get the dedicated rejection reason.
	ErrCouponNotFound = errors.New("coupon not found")
	ErrDuplicateCode  = errors.New("coupon code already exists")
)

// Store is the coupon registry's persistence layer. Codes are looked up in their
// normalized form. Redeem must be an atomic check-and-increment: it never lets
// UsedCount exceed UsageLimit, whatever the number of concurrent callers, and it
// refuses a coupon that is disabled or outside its window at now.
type Store interface {
	Get(ctx context.Context, code string) (discount.Coupon, error)
	GetByID(ctx context.Context, id string) (discount.Coupon, error)
	List(ctx context.Context) ([]discount.Coupon, error)
	Create(ctx context.Context, c discount.Coupon) error
	Update(ctx context.Context, c discount.Coupon) error
	Delete(ctx context.Context, id string) error
	Redeem(ctx context.Context, code string, now time.Time) (discount.Coupon, error)
}

// clone copies a coupon so callers never share the UsageLimit pointer with the store
func clone(c discount.Coupon) discount.Coupon {
	if c.UsageLimit != nil {
		limit := *c.UsageLimit
		c.UsageLimit = &limit
	}
	return c
}

// sortCoupons orders coupons by creation time, then code
func sortCoupons(coupons []discount.Coupon) {
	sort.SliceStable(coupons, func(i, j int) bool {
		if !coupons[i].CreatedAt.Equal(coupons[j].CreatedAt) {
			return coupons[i].CreatedAt.Before(coupons[j].CreatedAt)
		}
		return coupons[i].Code < coupons[j].Code
	})
}
