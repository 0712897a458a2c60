package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

const redisIDIndex = "coupons:ids"

// Keys share the {CODE} hash tag so the redeem script touches a single slot.
func redisCouponKey(code string) string { return fmt.Sprintf("coupon:{%s}", code) }
func redisUsedKey(code string) string   { return fmt.Sprintf("coupon:{%s}:used", code) }
func redisLimitKey(code string) string  { return fmt.Sprintf("coupon:{%s}:limit", code) }
func redisGateKey(code string) string   { return fmt.Sprintf("coupon:{%s}:gate", code) }

// KEYS[1]: coupon document, KEYS[2]: used counter, KEYS[3]: usage limit (absent when unlimited),
// KEYS[4]: gate hash of active flag and window bounds in unix milliseconds. ARGV[1]: now in unix milliseconds.
// Returns the new used count, 0 when exhausted, -1 when the coupon does not exist,
// -2 when it is disabled or outside its window.
var redeemScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 0 then
    return -1
end
local used = tonumber(redis.call('get', KEYS[2]) or '0')
local limit = redis.call('get', KEYS[3])
if limit and used >= tonumber(limit) then
    return 0
end
local gate = redis.call('hmget', KEYS[4], 'active', 'from', 'until')
local now = tonumber(ARGV[1])
if gate[1] == '0' then
    return -2
end
if gate[2] and now < tonumber(gate[2]) then
    return -2
end
if gate[3] and now > tonumber(gate[3]) then
    return -2
end
return redis.call('incr', KEYS[2])
`)

// RedisStore keeps coupons in Redis. The coupon document is stored as JSON and
// the used count lives in its own counter so redemption is a single script call.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the coupon with the given code
func (s *RedisStore) Get(ctx context.Context, code string) (discount.Coupon, error) {
	code = discount.NormalizeCode(code)

	vals, err := s.client.MGet(ctx, redisCouponKey(code), redisUsedKey(code)).Result()
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "mget coupon")
	}
	doc, ok := vals[0].(string)
	if !ok {
		return discount.Coupon{}, discount.ErrCodeNotFound
	}

	var c discount.Coupon
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return discount.Coupon{}, errors.Wrapf(err, "decode coupon %s", code)
	}
	if used, ok := vals[1].(string); ok {
		n, err := strconv.Atoi(used)
		if err != nil {
			return discount.Coupon{}, errors.Wrapf(err, "parse used count of %s", code)
		}
		c.UsedCount = n
	}
	return c, nil
}

// GetByID returns the coupon with the given id
func (s *RedisStore) GetByID(ctx context.Context, id string) (discount.Coupon, error) {
	code, err := s.client.HGet(ctx, redisIDIndex, id).Result()
	if errors.Is(err, redis.Nil) {
		return discount.Coupon{}, ErrCouponNotFound
	}
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "resolve coupon id")
	}

	c, err := s.Get(ctx, code)
	if errors.Is(err, discount.ErrCodeNotFound) {
		return discount.Coupon{}, ErrCouponNotFound
	}
	return c, err
}

// List returns every coupon, oldest first
func (s *RedisStore) List(ctx context.Context) ([]discount.Coupon, error) {
	index, err := s.client.HGetAll(ctx, redisIDIndex).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read coupon index")
	}

	coupons := make([]discount.Coupon, 0, len(index))
	for _, code := range index {
		c, err := s.Get(ctx, code)
		if errors.Is(err, discount.ErrCodeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	sortCoupons(coupons)
	return coupons, nil
}

// Create stores a new coupon. The code must be unused.
func (s *RedisStore) Create(ctx context.Context, c discount.Coupon) error {
	c.Code = discount.NormalizeCode(c.Code)
	doc, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode coupon")
	}

	created, err := s.client.SetNX(ctx, redisCouponKey(c.Code), doc, 0).Result()
	if err != nil {
		return errors.Wrap(err, "store coupon")
	}
	if !created {
		return ErrDuplicateCode
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisUsedKey(c.Code), c.UsedCount, 0)
	s.writeLimit(ctx, pipe, c)
	s.writeGate(ctx, pipe, c)
	pipe.HSet(ctx, redisIDIndex, c.ID, c.Code)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "store coupon counters")
	}
	return nil
}

// Update replaces the coupon with the same id. The code and used count are
// immutable.
func (s *RedisStore) Update(ctx context.Context, c discount.Coupon) error {
	existing, err := s.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Code = existing.Code

	doc, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode coupon")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisCouponKey(c.Code), doc, 0)
	s.writeLimit(ctx, pipe, c)
	s.writeGate(ctx, pipe, c)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "update coupon")
	}
	return nil
}

func (s *RedisStore) writeLimit(ctx context.Context, pipe redis.Pipeliner, c discount.Coupon) {
	if c.UsageLimit == nil {
		pipe.Del(ctx, redisLimitKey(c.Code))
		return
	}
	pipe.Set(ctx, redisLimitKey(c.Code), *c.UsageLimit, 0)
}

// writeGate mirrors the fields the redeem script re-checks
func (s *RedisStore) writeGate(ctx context.Context, pipe redis.Pipeliner, c discount.Coupon) {
	active := "0"
	if c.IsActive {
		active = "1"
	}
	pipe.HSet(ctx, redisGateKey(c.Code),
		"active", active,
		"from", c.ValidFrom.UnixMilli(),
		"until", c.ValidUntil.UnixMilli(),
	)
}

// Delete removes the coupon with the given id
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	code, err := s.client.HGet(ctx, redisIDIndex, id).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCouponNotFound
	}
	if err != nil {
		return errors.Wrap(err, "resolve coupon id")
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisCouponKey(code), redisUsedKey(code), redisLimitKey(code), redisGateKey(code))
	pipe.HDel(ctx, redisIDIndex, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "delete coupon")
	}
	return nil
}

// Redeem runs the check-and-increment script and returns the updated coupon
func (s *RedisStore) Redeem(ctx context.Context, code string, now time.Time) (discount.Coupon, error) {
	code = discount.NormalizeCode(code)
	keys := []string{redisCouponKey(code), redisUsedKey(code), redisLimitKey(code), redisGateKey(code)}

	result, err := redeemScript.Run(ctx, s.client, keys, now.UnixMilli()).Int64()
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "run redeem script")
	}

	switch {
	case result == -1:
		return discount.Coupon{}, discount.ErrCodeNotFound
	case result == 0:
		return discount.Coupon{}, discount.ErrUsageExhausted
	case result == -2:
		return discount.Coupon{}, discount.ErrCodeDisabledOrExpired
	case result < -2:
		return discount.Coupon{}, errors.Errorf("unexpected result from redeem script: %d", result)
	}

	c, err := s.Get(ctx, code)
	if err != nil {
		return discount.Coupon{}, err
	}
	c.UsedCount = int(result)
	return c, nil
}
