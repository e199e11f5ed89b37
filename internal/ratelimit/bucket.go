// Package ratelimit caps how fast the main account may post, so a bad
// parse or an ESPN feed glitch cannot flood the timeline.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TweetBucket implements a token bucket rate limiter using Redis
type TweetBucket struct {
	client   *redis.Client
	key      string
	capacity int           // maximum tokens in the bucket
	refill   time.Duration // how often the bucket is refilled to capacity
	logger   *zap.SugaredLogger
}

// NewTweetBucket creates a new tweet rate limiter
func NewTweetBucket(client *redis.Client, capacity int, refill time.Duration, logger *zap.SugaredLogger) *TweetBucket {
	return &TweetBucket{
		client:   client,
		key:      "tweet:ratelimit:tokens",
		capacity: capacity,
		refill:   refill,
		logger:   logger,
	}
}

// Allow returns true if a tweet can be posted (token available)
func (b *TweetBucket) Allow(ctx context.Context) (bool, error) {
	if err := b.initialize(ctx); err != nil {
		return false, err
	}

	tokens, err := b.client.Decr(ctx, b.key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to decrement tokens: %w", err)
	}

	// If tokens went negative, we're rate limited
	if tokens < 0 {
		// Restore the token we tried to take
		b.client.Incr(ctx, b.key)
		return false, nil
	}

	return true, nil
}

// initialize sets up the token bucket if it doesn't exist
func (b *TweetBucket) initialize(ctx context.Context) error {
	exists, err := b.client.Exists(ctx, b.key).Result()
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if exists == 0 {
		if err := b.client.Set(ctx, b.key, b.capacity, 0).Err(); err != nil {
			return fmt.Errorf("failed to initialize bucket: %w", err)
		}
	}

	return nil
}

// Run refills the bucket to capacity on the refill interval until the
// context is canceled.
func (b *TweetBucket) Run(ctx context.Context) {
	ticker := time.NewTicker(b.refill)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.client.Set(ctx, b.key, b.capacity, 0).Err(); err != nil {
				b.logger.Errorw("Failed to refill tweet bucket", "error", err)
			}
		}
	}
}

// Tokens returns the current token count (for monitoring)
func (b *TweetBucket) Tokens(ctx context.Context) (int, error) {
	tokens, err := b.client.Get(ctx, b.key).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get tokens: %w", err)
	}

	return tokens, nil
}

// Reset resets the bucket to capacity
func (b *TweetBucket) Reset(ctx context.Context) error {
	return b.client.Set(ctx, b.key, b.capacity, 0).Err()
}
