package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// MemoryStore keeps coupons in process memory.
//
// A bloom filter over every code ever stored lets lookups for unknown codes
// return without touching the maps. Deleted codes stay in the filter, which only
// costs a map miss.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[string]*discount.Coupon
	byID   map[string]*discount.Coupon
	filter *bloom.BloomFilter
}

// NewMemoryStore creates an empty store sized for roughly expectedCoupons codes
func NewMemoryStore(expectedCoupons uint) *MemoryStore {
	if expectedCoupons < 64 {
		expectedCoupons = 64
	}
	return &MemoryStore{
		byCode: make(map[string]*discount.Coupon),
		byID:   make(map[string]*discount.Coupon),
		filter: bloom.NewWithEstimates(expectedCoupons, 0.01),
	}
}

// Get returns the coupon with the given code
func (s *MemoryStore) Get(ctx context.Context, code string) (discount.Coupon, error) {
	code = discount.NormalizeCode(code)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.filter.TestString(code) {
		return discount.Coupon{}, discount.ErrCodeNotFound
	}
	c, ok := s.byCode[code]
	if !ok {
		return discount.Coupon{}, discount.ErrCodeNotFound
	}
	return clone(*c), nil
}

// GetByID returns the coupon with the given id
func (s *MemoryStore) GetByID(ctx context.Context, id string) (discount.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return discount.Coupon{}, ErrCouponNotFound
	}
	return clone(*c), nil
}

// List returns every coupon, oldest first
func (s *MemoryStore) List(ctx context.Context) ([]discount.Coupon, error) {
	s.mu.RLock()
	coupons := make([]discount.Coupon, 0, len(s.byID))
	for _, c := range s.byID {
		coupons = append(coupons, clone(*c))
	}
	s.mu.RUnlock()

	sortCoupons(coupons)
	return coupons, nil
}

// Create stores a new coupon. The code must be unused.
func (s *MemoryStore) Create(ctx context.Context, c discount.Coupon) error {
	c = clone(c)
	c.Code = discount.NormalizeCode(c.Code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byCode[c.Code]; exists {
		return ErrDuplicateCode
	}
	s.byCode[c.Code] = &c
	s.byID[c.ID] = &c
	s.filter.AddString(c.Code)
	return nil
}

// Update replaces the coupon with the same id. The code and used count are
// immutable.
func (s *MemoryStore) Update(ctx context.Context, c discount.Coupon) error {
	c = clone(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[c.ID]
	if !ok {
		return ErrCouponNotFound
	}
	c.Code = existing.Code
	c.UsedCount = existing.UsedCount
	s.byCode[c.Code] = &c
	s.byID[c.ID] = &c
	return nil
}

// Delete removes the coupon with the given id
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return ErrCouponNotFound
	}
	delete(s.byCode, c.Code)
	delete(s.byID, id)
	return nil
}

// Redeem consumes one use of the coupon under the write lock
func (s *MemoryStore) Redeem(ctx context.Context, code string, now time.Time) (discount.Coupon, error) {
	code = discount.NormalizeCode(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byCode[code]
	if !ok {
		return discount.Coupon{}, discount.ErrCodeNotFound
	}
	if err := discount.Check(*c, now, false); err != nil {
		return discount.Coupon{}, err
	}
	c.UsedCount++
	return clone(*c), nil
}
