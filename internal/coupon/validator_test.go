package coupon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

type countingRecorder struct {
	mu        sync.Mutex
	validated map[discount.Reason]int
	redeemed  []string
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{validated: make(map[discount.Reason]int)}
}

func (r *countingRecorder) CouponValidated(reason discount.Reason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validated[reason]++
}

func (r *countingRecorder) CouponRedeemed(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redeemed = append(r.redeemed, code)
}

// seededStore holds the storefront's launch coupons plus a few edge cases
func seededStore(t *testing.T) *MemoryStore {
	t.Helper()

	welcome := newTestCoupon("WELCOME20", discount.TypePercentage, 20, intPtr(100), 15)
	welcome.MaxDiscount = decimal.NewNullDecimal(decimal.NewFromInt(500))
	welcome.MinOrderAmount = decimal.NewFromInt(1000)
	welcome.FirstTimeOnly = true

	save := newTestCoupon("SAVE500", discount.TypeFixed, 500, intPtr(50), 8)
	save.MinOrderAmount = decimal.NewFromInt(2500)

	free := newTestCoupon("FREESHIP", discount.TypeFreeShipping, 0, nil, 45)
	free.MinOrderAmount = decimal.NewFromInt(1500)

	spent := newTestCoupon("SPENT50", discount.TypeFixed, 500, intPtr(50), 50)

	off := newTestCoupon("PAUSED", discount.TypeFixed, 100, nil, 0)
	off.IsActive = false

	s := NewMemoryStore(0)
	for _, c := range []discount.Coupon{welcome, save, free, spent, off} {
		require.NoError(t, s.Create(context.Background(), c))
	}
	return s
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(seededStore(t), nil)

	tests := []struct {
		name           string
		code           string
		subtotal       string
		hasPriorOrders bool
		wantErr        error
		wantAmount     string
		wantFree       bool
	}{
		{name: "welcome20 on 1200", code: "WELCOME20", subtotal: "1200", wantAmount: "240"},
		{name: "welcome20 capped at max", code: "welcome20", subtotal: "5000", wantAmount: "500"},
		{name: "welcome20 repeat customer", code: "WELCOME20", subtotal: "1200", hasPriorOrders: true, wantErr: discount.ErrNotFirstTimeEligible},
		{name: "save500 on 3000", code: "SAVE500", subtotal: "3000", wantAmount: "500"},
		{name: "save500 below minimum", code: "SAVE500", subtotal: "2499.99", wantErr: discount.ErrBelowMinimumOrder},
		{name: "freeship on 1600", code: "FREESHIP", subtotal: "1600", wantAmount: "0", wantFree: true},
		{name: "freeship on 800", code: "FREESHIP", subtotal: "800", wantErr: discount.ErrBelowMinimumOrder},
		{name: "exhausted", code: "SPENT50", subtotal: "3000", wantErr: discount.ErrUsageExhausted},
		{name: "disabled", code: "PAUSED", subtotal: "3000", wantErr: discount.ErrCodeDisabledOrExpired},
		{name: "unknown code", code: "NOTACODE", subtotal: "3000", wantErr: discount.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, d, err := v.Validate(context.Background(), tt.code, decimal.RequireFromString(tt.subtotal), midWindow, tt.hasPriorOrders)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d.Amount.Equal(decimal.RequireFromString(tt.wantAmount)), "amount = %s", d.Amount)
			assert.Equal(t, tt.wantFree, d.FreeShipping)
		})
	}
}

func TestValidator_ValidateDoesNotMutate(t *testing.T) {
	store := seededStore(t)
	v := NewValidator(store, nil)

	for i := 0; i < 3; i++ {
		_, _, err := v.Validate(context.Background(), "SAVE500", decimal.NewFromInt(3000), midWindow, false)
		require.NoError(t, err)
	}

	c, err := store.Get(context.Background(), "SAVE500")
	require.NoError(t, err)
	assert.Equal(t, 8, c.UsedCount)
}

func TestValidator_Commit(t *testing.T) {
	store := seededStore(t)
	rec := newCountingRecorder()
	v := NewValidator(store, rec)

	c, err := v.Commit(context.Background(), "save500", midWindow)
	require.NoError(t, err)
	assert.Equal(t, 9, c.UsedCount)
	assert.Equal(t, []string{"SAVE500"}, rec.redeemed)

	_, err = v.Commit(context.Background(), "SPENT50", midWindow)
	assert.ErrorIs(t, err, discount.ErrUsageExhausted)
	assert.Len(t, rec.redeemed, 1)

	_, err = v.Commit(context.Background(), "SAVE500", windowEnd.Add(time.Hour))
	assert.ErrorIs(t, err, discount.ErrCodeDisabledOrExpired)
	assert.Len(t, rec.redeemed, 1)
}

func TestValidator_PeekIsNotRecorded(t *testing.T) {
	rec := newCountingRecorder()
	v := NewValidator(seededStore(t), rec)
	ctx := context.Background()

	_, d, err := v.Peek(ctx, "WELCOME20", decimal.NewFromInt(1200), midWindow, false)
	require.NoError(t, err)
	assert.True(t, d.Amount.Equal(decimal.NewFromInt(240)))

	_, _, err = v.Peek(ctx, "FREESHIP", decimal.NewFromInt(800), midWindow, false)
	assert.ErrorIs(t, err, discount.ErrBelowMinimumOrder)

	assert.Empty(t, rec.validated)
}

func TestValidator_RecordsOutcomes(t *testing.T) {
	rec := newCountingRecorder()
	v := NewValidator(seededStore(t), rec)
	ctx := context.Background()

	_, _, _ = v.Validate(ctx, "WELCOME20", decimal.NewFromInt(1200), midWindow, false)
	_, _, _ = v.Validate(ctx, "NOTACODE", decimal.NewFromInt(1200), midWindow, false)
	_, _, _ = v.Validate(ctx, "FREESHIP", decimal.NewFromInt(800), midWindow, false)

	assert.Equal(t, 1, rec.validated[discount.ReasonNone])
	assert.Equal(t, 1, rec.validated[discount.ReasonCodeNotFound])
	assert.Equal(t, 1, rec.validated[discount.ReasonBelowMinimumOrder])
}

func TestValidator_ConcurrentValidateAndCommit(t *testing.T) {
	store := seededStore(t)
	v := NewValidator(store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0

	// SAVE500 has 42 uses left; 100 shoppers race for them
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := v.Validate(ctx, "SAVE500", decimal.NewFromInt(3000), midWindow, false); err != nil {
				return
			}
			if _, err := v.Commit(ctx, "SAVE500", midWindow); err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 42, committed)
	c, err := store.Get(ctx, "SAVE500")
	require.NoError(t, err)
	assert.Equal(t, 50, c.UsedCount)
}
