package lot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisSequencer keeps all counters in one hash, field = product code.
// HINCRBY makes the commit atomic across operators.
type RedisSequencer struct {
	client *redis.Client
	key    string
	prefix string
}

func NewRedisSequencer(client *redis.Client, key, prefix string) *RedisSequencer {
	return &RedisSequencer{client: client, key: key, prefix: prefix}
}

func field(productCode int64) string {
	return strconv.FormatInt(productCode, 10)
}

func (s *RedisSequencer) Next(ctx context.Context, productCode int64, commit bool) (string, error) {
	if !commit {
		last, err := s.Current(ctx, productCode)
		if err != nil {
			return "", err
		}
		return Format(s.prefix, last+1), nil
	}

	issued, err := s.client.HIncrBy(ctx, s.key, field(productCode), 1).Result()
	if err != nil {
		return "", fmt.Errorf("increment lot counter for %d: %w", productCode, err)
	}
	return Format(s.prefix, issued), nil
}

func (s *RedisSequencer) Current(ctx context.Context, productCode int64) (int64, error) {
	last, err := s.client.HGet(ctx, s.key, field(productCode)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read lot counter for %d: %w", productCode, err)
	}
	return last, nil
}

func (s *RedisSequencer) Reset(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
