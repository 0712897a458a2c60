package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// ErrInvalidCoupon wraps every admin input validation failure
var ErrInvalidCoupon = errors.New("invalid coupon")

const maxCodeLength = 32

// Status is the admin-facing lifecycle label of a coupon
type Status string

const (
	StatusActive    Status = "active"
	StatusDisabled  Status = "disabled"
	StatusExpired   Status = "expired"
	StatusExhausted Status = "exhausted"
	StatusScheduled Status = "scheduled"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusExpired, StatusExhausted, StatusScheduled:
		return true
	}
	return false
}

// StatusOf labels a coupon. Precedence follows discount.Check so the label
// names the rejection a shopper would get: exhausted, disabled, expired,
// scheduled, active.
func StatusOf(c discount.Coupon, now time.Time) Status {
	switch {
	case c.Exhausted():
		return StatusExhausted
	case !c.IsActive:
		return StatusDisabled
	case now.After(c.ValidUntil):
		return StatusExpired
	case now.Before(c.ValidFrom):
		return StatusScheduled
	}
	return StatusActive
}

// Input carries the admin-editable fields of a coupon. Code is ignored on update.
type Input struct {
	Code           string
	Description    string
	Type           discount.Type
	DiscountValue  decimal.Decimal
	MaxDiscount    decimal.NullDecimal
	MinOrderAmount decimal.Decimal
	UsageLimit     *int
	ValidFrom      time.Time
	ValidUntil     time.Time
	IsActive       bool
	FirstTimeOnly  bool
}

// Validate checks the input against the registry's invariants
func (in Input) Validate() error {
	if !in.Type.Valid() {
		return invalid("unknown type %q", in.Type)
	}
	switch in.Type {
	case discount.TypePercentage:
		if !in.DiscountValue.IsPositive() || in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return invalid("percentage must be greater than 0 and at most 100")
		}
	case discount.TypeFixed:
		if !in.DiscountValue.IsPositive() {
			return invalid("fixed discount must be greater than 0")
		}
	}
	if in.MinOrderAmount.IsNegative() {
		return invalid("minOrderAmount must not be negative")
	}
	if in.MaxDiscount.Valid && !in.MaxDiscount.Decimal.IsPositive() {
		return invalid("maxDiscount must be greater than 0")
	}
	if in.UsageLimit != nil && *in.UsageLimit <= 0 {
		return invalid("usageLimit must be greater than 0")
	}
	if in.ValidFrom.IsZero() || in.ValidUntil.IsZero() {
		return invalid("validFrom and validUntil are required")
	}
	if !in.ValidFrom.Before(in.ValidUntil) {
		return invalid("validFrom must be before validUntil")
	}
	return nil
}

func validateCode(code string) error {
	if code == "" {
		return invalid("code is required")
	}
	if len(code) > maxCodeLength {
		return invalid("code must be at most %d characters", maxCodeLength)
	}
	if strings.ContainsAny(code, " \t\r\n") {
		return invalid("code must not contain whitespace")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCoupon, fmt.Sprintf(format, args...))
}

// apply copies the input onto c, filling the derived fields
func (in Input) apply(c *discount.Coupon) {
	c.Description = strings.TrimSpace(in.Description)
	c.Type = in.Type
	c.DiscountValue = in.DiscountValue
	c.MaxDiscount = in.MaxDiscount
	c.MinOrderAmount = in.MinOrderAmount
	c.UsageLimit = in.UsageLimit
	c.ValidFrom = in.ValidFrom.UTC()
	c.ValidUntil = in.ValidUntil.UTC()
	c.IsActive = in.IsActive
	c.FirstTimeOnly = in.FirstTimeOnly

	if c.Type == discount.TypeFreeShipping {
		c.DiscountValue = decimal.Zero
	}
	if c.Type != discount.TypePercentage {
		c.MaxDiscount = decimal.NullDecimal{}
	}
	if c.Description == "" {
		c.Description = c.DefaultDescription()
	}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	// Search matches code or description, case-insensitively
	Search string
	Status Status
	Type   discount.Type
}

// Stats summarizes the registry for the admin dashboard
type Stats struct {
	Total       int            `json:"total"`
	ByStatus    map[Status]int `json:"byStatus"`
	Redemptions int            `json:"redemptions"`
}

// Registry implements the admin operations on top of a Store
type Registry struct {
	store Store
	now   func() time.Time
}

// NewRegistry creates a registry over store
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Create validates and stores a new coupon
func (r *Registry) Create(ctx context.Context, in Input) (discount.Coupon, error) {
	return r.create(ctx, in, "", 0)
}

func (r *Registry) create(ctx context.Context, in Input, id string, usedCount int) (discount.Coupon, error) {
	code := discount.NormalizeCode(in.Code)
	if err := validateCode(code); err != nil {
		return discount.Coupon{}, err
	}
	if err := in.Validate(); err != nil {
		return discount.Coupon{}, err
	}
	if in.UsageLimit != nil && usedCount > *in.UsageLimit {
		return discount.Coupon{}, invalid("usedCount %d exceeds usageLimit %d", usedCount, *in.UsageLimit)
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := r.now().UTC()
	c := discount.Coupon{
		ID:        id,
		Code:      code,
		UsedCount: usedCount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&c)

	if err := r.store.Create(ctx, c); err != nil {
		return discount.Coupon{}, err
	}
	return c, nil
}

// Get returns the coupon with the given id
func (r *Registry) Get(ctx context.Context, id string) (discount.Coupon, error) {
	return r.store.GetByID(ctx, id)
}

// Update replaces the editable fields of a coupon. Code, usage count and
// creation time are kept.
func (r *Registry) Update(ctx context.Context, id string, in Input) (discount.Coupon, error) {
	if err := in.Validate(); err != nil {
		return discount.Coupon{}, err
	}

	c, err := r.store.GetByID(ctx, id)
	if err != nil {
		return discount.Coupon{}, err
	}
	if in.UsageLimit != nil && *in.UsageLimit < c.UsedCount {
		return discount.Coupon{}, invalid("usageLimit %d is below the %d uses already recorded", *in.UsageLimit, c.UsedCount)
	}

	in.apply(&c)
	c.UpdatedAt = r.now().UTC()

	if err := r.store.Update(ctx, c); err != nil {
		return discount.Coupon{}, err
	}
	return c, nil
}

// Toggle flips the coupon's active flag
func (r *Registry) Toggle(ctx context.Context, id string) (discount.Coupon, error) {
	c, err := r.store.GetByID(ctx, id)
	if err != nil {
		return discount.Coupon{}, err
	}
	c.IsActive = !c.IsActive
	c.UpdatedAt = r.now().UTC()

	if err := r.store.Update(ctx, c); err != nil {
		return discount.Coupon{}, err
	}
	return c, nil
}

// Status reports the lifecycle status of c at the registry clock
func (r *Registry) Status(c discount.Coupon) Status {
	return StatusOf(c, r.now())
}

// Delete removes a coupon
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// List returns the coupons matching f, oldest first
func (r *Registry) List(ctx context.Context, f Filter) ([]discount.Coupon, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]discount.Coupon, 0, len(all))
	for _, c := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Code), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		if f.Status != "" && StatusOf(c, now) != f.Status {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Stats counts coupons per status and sums their redemptions
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	now := r.now()
	stats := Stats{
		Total: len(all),
		ByStatus: map[Status]int{
			StatusActive:    0,
			StatusDisabled:  0,
			StatusExpired:   0,
			StatusExhausted: 0,
			StatusScheduled: 0,
		},
	}
	for _, c := range all {
		stats.ByStatus[StatusOf(c, now)]++
		stats.Redemptions += c.UsedCount
	}
	return stats, nil
}
