// Package cancel runs the crowd-sourced cancellation vote: after a punt
// reaches the ninety account, followers get an hour-long poll, and an
// approved vote replaces the tweet with a CANCELED verdict.
package cancel

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PollQuestion is the text of the cancellation poll posted under every
// ninety account tweet.
const PollQuestion = "Should this punt's Surrender Index be canceled?"

const (
	pendingKey = "cancel:pending"
	retryDelay = 5 * time.Minute
)

// PendingCancel is a cancellation vote awaiting its verdict.
type PendingCancel struct {
	PuntID        int64  `json:"punt_id"`
	NinetyTweetID string `json:"ninety_tweet_id"`
	PollTweetID   string `json:"poll_tweet_id"`
	Text          string `json:"text"`
	Attempts      int    `json:"attempts"`
}

// Queue holds pending cancellation votes in a Redis sorted set scored by
// the time their poll closes.
type Queue struct {
	client *redis.Client
	delay  time.Duration
}

// NewQueue creates a queue whose verdicts come due delay after scheduling.
func NewQueue(client *redis.Client, delay time.Duration) *Queue {
	return &Queue{client: client, delay: delay}
}

// Schedule enqueues a vote to be checked once its poll has closed.
func (q *Queue) Schedule(ctx context.Context, pending PendingCancel) error {
	return q.scheduleAt(ctx, pending, time.Now().Add(q.delay))
}

// Retry re-enqueues a vote whose verdict check failed.
func (q *Queue) Retry(ctx context.Context, pending PendingCancel) error {
	return q.scheduleAt(ctx, pending, time.Now().Add(retryDelay))
}

func (q *Queue) scheduleAt(ctx context.Context, pending PendingCancel, due time.Time) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encoding pending cancel: %w", err)
	}

	err = q.client.ZAdd(ctx, pendingKey, redis.Z{
		Score:  float64(due.Unix()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule cancel verdict: %w", err)
	}

	return nil
}

// PopDue removes and returns every vote whose poll has closed.
func (q *Queue) PopDue(ctx context.Context, now time.Time) ([]PendingCancel, error) {
	members, err := q.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pending cancels: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	raw := make([]interface{}, len(members))
	for i, member := range members {
		raw[i] = member
	}
	if err := q.client.ZRem(ctx, pendingKey, raw...).Err(); err != nil {
		return nil, fmt.Errorf("failed to claim pending cancels: %w", err)
	}

	due := make([]PendingCancel, 0, len(members))
	for _, member := range members {
		var pending PendingCancel
		if err := json.Unmarshal([]byte(member), &pending); err != nil {
			continue
		}
		due = append(due, pending)
	}

	return due, nil
}
