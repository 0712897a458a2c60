package discount

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	midWindow   = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(n int) *int {
	return &n
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, fmt.Sprintf("want %s, got %s", want, got), msgAndArgs...)
	}
}

func welcome20() Coupon {
	return Coupon{
		ID:             "1",
		Code:           "WELCOME20",
		Type:           TypePercentage,
		DiscountValue:  dec("20"),
		MaxDiscount:    decimal.NewNullDecimal(dec("500")),
		MinOrderAmount: dec("1000"),
		UsageLimit:     intPtr(100),
		UsedCount:      15,
		ValidFrom:      windowStart,
		ValidUntil:     windowEnd,
		IsActive:       true,
		FirstTimeOnly:  true,
	}
}

func save500() Coupon {
	return Coupon{
		ID:             "2",
		Code:           "SAVE500",
		Type:           TypeFixed,
		DiscountValue:  dec("500"),
		MinOrderAmount: dec("2500"),
		UsageLimit:     intPtr(50),
		UsedCount:      8,
		ValidFrom:      windowStart,
		ValidUntil:     windowEnd,
		IsActive:       true,
	}
}

func freeShip() Coupon {
	return Coupon{
		ID:             "3",
		Code:           "FREESHIP",
		Type:           TypeFreeShipping,
		MinOrderAmount: dec("1500"),
		UsedCount:      45,
		ValidFrom:      windowStart,
		ValidUntil:     windowEnd,
		IsActive:       true,
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(c *Coupon)
		now            time.Time
		hasPriorOrders bool
		wantErr        error
	}{
		{
			name: "redeemable inside window",
			now:  midWindow,
		},
		{
			name: "window start is inclusive",
			now:  windowStart,
		},
		{
			name: "window end is inclusive",
			now:  windowEnd,
		},
		{
			name:    "before window",
			now:     windowStart.Add(-time.Second),
			wantErr: ErrCodeDisabledOrExpired,
		},
		{
			name:    "after window",
			now:     windowEnd.Add(time.Second),
			wantErr: ErrCodeDisabledOrExpired,
		},
		{
			name:    "inactive",
			mutate:  func(c *Coupon) { c.IsActive = false },
			now:     midWindow,
			wantErr: ErrCodeDisabledOrExpired,
		},
		{
			name:   "one use left",
			mutate: func(c *Coupon) { c.UsageLimit = intPtr(50); c.UsedCount = 49 },
			now:    midWindow,
		},
		{
			name:    "limit reached",
			mutate:  func(c *Coupon) { c.UsageLimit = intPtr(50); c.UsedCount = 50 },
			now:     midWindow,
			wantErr: ErrUsageExhausted,
		},
		{
			name:   "unlimited usage",
			mutate: func(c *Coupon) { c.UsageLimit = nil; c.UsedCount = 100000 },
			now:    midWindow,
		},
		{
			name:           "first-time coupon with prior orders",
			mutate:         func(c *Coupon) { c.FirstTimeOnly = true },
			now:            midWindow,
			hasPriorOrders: true,
			wantErr:        ErrNotFirstTimeEligible,
		},
		{
			name:   "first-time coupon without prior orders",
			mutate: func(c *Coupon) { c.FirstTimeOnly = true },
			now:    midWindow,
		},
		{
			name:           "regular coupon ignores prior orders",
			now:            midWindow,
			hasPriorOrders: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := save500()
			if tt.mutate != nil {
				tt.mutate(&c)
			}

			err := Check(c, tt.now, tt.hasPriorOrders)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, IsRedeemable(c, tt.now, tt.hasPriorOrders))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, IsRedeemable(c, tt.now, tt.hasPriorOrders))
		})
	}
}

func TestCheck_ExhaustedRegardlessOfWindowOrFlag(t *testing.T) {
	c := save500()
	c.UsageLimit = intPtr(50)
	c.UsedCount = 50

	for _, active := range []bool{true, false} {
		for _, now := range []time.Time{windowStart.Add(-time.Hour), midWindow, windowEnd.Add(time.Hour)} {
			c.IsActive = active
			err := Check(c, now, false)
			assert.ErrorIs(t, err, ErrUsageExhausted, "active=%v now=%v", active, now)
		}
	}
}

func TestCheck_ExpiredNeverRedeemable(t *testing.T) {
	for _, active := range []bool{true, false} {
		c := welcome20()
		c.IsActive = active
		assert.False(t, IsRedeemable(c, windowEnd.Add(time.Minute), false))
	}
}

func TestCheckMinimum(t *testing.T) {
	c := freeShip()

	err := CheckMinimum(c, dec("800"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBelowMinimumOrder)
	assert.Equal(t, ReasonBelowMinimumOrder, ReasonOf(err))

	assert.NoError(t, CheckMinimum(c, dec("1500")), "minimum is inclusive")
	assert.NoError(t, CheckMinimum(c, dec("1500.01")))
}

func TestComputeDiscount_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		max      *string
		subtotal string
		want     string
	}{
		{"welcome20 scenario", "20", strPtr("500"), "1200", "240"},
		{"clamped to max", "20", strPtr("500"), "5000", "500"},
		{"no max", "20", nil, "5000", "1000"},
		{"fractional result", "15", nil, "999", "149.85"},
		{"hundred percent", "100", nil, "1234", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := welcome20()
			c.DiscountValue = dec(tt.value)
			c.MaxDiscount = decimal.NullDecimal{}
			if tt.max != nil {
				c.MaxDiscount = decimal.NewNullDecimal(dec(*tt.max))
			}

			d := ComputeDiscount(c, dec(tt.subtotal))
			assertDecimal(t, tt.want, d.Amount)
			assert.False(t, d.FreeShipping)
			assert.Equal(t, "WELCOME20", d.Code)
		})
	}
}

func strPtr(s string) *string {
	return &s
}

func TestComputeDiscount_PercentageBoundedProperty(t *testing.T) {
	c := welcome20()
	for _, s := range []string{"0", "1", "999.99", "1000", "2499.5", "2500", "2501", "100000"} {
		subtotal := dec(s)
		d := ComputeDiscount(c, subtotal)
		bound := decimal.Min(subtotal.Mul(c.DiscountValue).Div(hundred), c.MaxDiscount.Decimal, subtotal)
		assert.True(t, d.Amount.LessThanOrEqual(bound), "subtotal %s: %s > %s", s, d.Amount, bound)
	}
}

func TestComputeDiscount_Fixed(t *testing.T) {
	c := save500()
	for _, tt := range []struct{ subtotal, want string }{
		{"3000", "500"},
		{"500", "500"},
		{"120", "120"},
		{"0", "0"},
	} {
		d := ComputeDiscount(c, dec(tt.subtotal))
		assertDecimal(t, tt.want, d.Amount, "subtotal %s", tt.subtotal)
		assert.False(t, d.FreeShipping)
	}
}

func TestComputeDiscount_FreeShipping(t *testing.T) {
	c := freeShip()
	c.DiscountValue = dec("300")
	for _, s := range []string{"0", "1500", "99999"} {
		d := ComputeDiscount(c, dec(s))
		assert.True(t, d.Amount.IsZero(), "subtotal %s", s)
		assert.True(t, d.FreeShipping)
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("welcome20 on 1200", func(t *testing.T) {
		d, err := Evaluate(welcome20(), dec("1200"), midWindow, false)
		require.NoError(t, err)
		assertDecimal(t, "240", d.Amount)
	})

	t.Run("freeship below minimum", func(t *testing.T) {
		_, err := Evaluate(freeShip(), dec("800"), midWindow, false)
		assert.ErrorIs(t, err, ErrBelowMinimumOrder)
	})

	t.Run("policy failure reported before minimum", func(t *testing.T) {
		c := freeShip()
		c.IsActive = false
		_, err := Evaluate(c, dec("800"), midWindow, false)
		assert.ErrorIs(t, err, ErrCodeDisabledOrExpired)
	})

	t.Run("welcome20 for returning customer", func(t *testing.T) {
		_, err := Evaluate(welcome20(), dec("1200"), midWindow, true)
		assert.ErrorIs(t, err, ErrNotFirstTimeEligible)
	})
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{nil, ReasonNone},
		{ErrCodeNotFound, ReasonCodeNotFound},
		{ErrCodeDisabledOrExpired, ReasonDisabledOrExpired},
		{ErrUsageExhausted, ReasonUsageExhausted},
		{ErrNotFirstTimeEligible, ReasonNotFirstTimeEligible},
		{ErrBelowMinimumOrder, ReasonBelowMinimumOrder},
		{assert.AnError, ReasonNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReasonOf(tt.err))
		if tt.want != ReasonNone {
			assert.True(t, IsRejection(tt.err))
			assert.NotEmpty(t, tt.want.Message())
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME20", NormalizeCode("  welcome20 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestDefaultDescription(t *testing.T) {
	c := welcome20()
	assert.Equal(t, "20% off", c.DefaultDescription())
	c = save500()
	assert.Equal(t, "₹500 off", c.DefaultDescription())
	c = freeShip()
	assert.Equal(t, "Free shipping", c.DefaultDescription())
}
