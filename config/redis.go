package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var RedisClient *redis.Client

// Campaign submissions carry an idempotency key so a retry from another tab
// or a resubmitted request cannot create a duplicate campaign record. The
// key is claimed in redis before the send loop starts; if redis is not
// configured the claim always succeeds and duplicate protection is off.

const idempotencyTTL = 24 * time.Hour
const idempotencyKeyPrefix = "campaign:idem:"

func InitRedis() {
	redisURL := viper.GetString("REDIS_URL")
	if redisURL == "" {
		log.Println("REDIS_URL not configured, campaign idempotency keys will be disabled")
		return
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Warning: failed to parse REDIS_URL: %v - idempotency keys disabled", err)
		return
	}

	RedisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis: %v - idempotency keys disabled", err)
		RedisClient = nil
		return
	}

	log.Println("Connected to Redis")
}

// ClaimIdempotencyKey atomically claims key for the caller. It returns
// false when another request already claimed the same key, meaning the
// submission is a duplicate and must not create a second campaign.
func ClaimIdempotencyKey(ctx context.Context, key string) bool {
	if RedisClient == nil || key == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ok, err := RedisClient.SetNX(ctx, idempotencyKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), idempotencyTTL).Result()
	if err != nil {
		// Redis trouble must not block sending; fall open.
		return true
	}
	return ok
}

// ReleaseIdempotencyKey frees a claimed key so the operator can retry a
// submission whose campaign setup failed before anything was sent.
func ReleaseIdempotencyKey(ctx context.Context, key string) {
	if RedisClient == nil || key == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_ = RedisClient.Del(ctx, idempotencyKeyPrefix+key).Err()
}
