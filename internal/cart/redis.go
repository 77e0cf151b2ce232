package cart

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix   = "cart:"
	couponKeyPrefix = "cart:coupon:"
)

var _ Store = (*RedisStore)(nil)

// RedisStore implements Store on a Redis hash per session. Entries expire
// after the configured TTL; every write refreshes it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a RedisStore using the given client. Sessions expire
// ttl after their last write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get loads the session's cart. A missing key is an empty cart.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	fields, err := s.client.HGetAll(ctx, cartKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read cart hash")
	}

	c := &Cart{Lines: make([]Line, 0, len(fields))}
	for productID, qty := range fields {
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt quantity for %q", productID)
		}
		c.Lines = append(c.Lines, Line{ProductID: productID, Quantity: n})
	}
	// Hash iteration order is random; keep rendering stable.
	sort.Slice(c.Lines, func(i, j int) bool { return c.Lines[i].ProductID < c.Lines[j].ProductID })
	return c, nil
}

// AddItem increments the product's quantity and refreshes the session TTL.
func (s *RedisStore) AddItem(ctx context.Context, sessionID, productID string, quantity int) error {
	key := cartKeyPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, productID, int64(quantity))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "add cart item")
	}
	return nil
}

// RemoveItem deletes the product's line. Removing an absent line is a no-op.
func (s *RedisStore) RemoveItem(ctx context.Context, sessionID, productID string) error {
	if err := s.client.HDel(ctx, cartKeyPrefix+sessionID, productID).Err(); err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	return nil
}

// Clear drops the session's cart contents.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// ApplyCoupon stores the coupon code against the session.
func (s *RedisStore) ApplyCoupon(ctx context.Context, sessionID, code string) error {
	if err := s.client.Set(ctx, couponKeyPrefix+sessionID, code, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "apply coupon")
	}
	return nil
}

// CouponCode returns the session's applied coupon code, "" when none.
func (s *RedisStore) CouponCode(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.Get(ctx, couponKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read coupon code")
	}
	return code, nil
}

// ClearCoupon removes the session's applied coupon. Idempotent.
func (s *RedisStore) ClearCoupon(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, couponKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "clear coupon")
	}
	return nil
}
