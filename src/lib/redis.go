package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// GetRedisClient returns nil when REDIS_HOST is unset or unparsable. Callers treat that as "no redis".
func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// RateLimiter is a fixed-window request counter keyed by client.
type RateLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, max int64, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

// Allow counts a hit for key. Without redis, or on a redis error, the request is allowed.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	k := fmt.Sprintf("ratelimit:%s", key)
	hits, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if hits == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			log.Printf("[redis] Failed to set expiry on %s: %s\n", k, err.Error())
		}
	}
	return hits <= l.max, nil
}

// WebhookDeduper drops gateway events that were already received.
type WebhookDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewWebhookDeduper(rdb *redis.Client, ttl time.Duration) *WebhookDeduper {
	return &WebhookDeduper{rdb: rdb, ttl: ttl}
}

func webhookKey(key string) string {
	return fmt.Sprintf("webhook:razorpay:%s", key)
}

// Claim reports whether the caller is the first to see key. Without redis every claim succeeds.
func (d *WebhookDeduper) Claim(ctx context.Context, key string) (bool, error) {
	if d == nil || d.rdb == nil {
		return true, nil
	}
	ok, err := d.rdb.SetNX(ctx, webhookKey(key), "1", d.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Release forgets key so a replay of the same event is processed again.
func (d *WebhookDeduper) Release(ctx context.Context, key string) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Del(ctx, webhookKey(key)).Err()
}
