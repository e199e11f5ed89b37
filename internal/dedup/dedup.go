// Package dedup tracks which drives have been sighted, queued, and tweeted
// using Redis markers, so restarts and overlapping poll cycles never double
// post a punt.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker TTLs. Tweeted markers stay fresh for 12 hours, comfortably past
// the end of any game. Queued markers are short: if the tweet pipeline
// dies before marking a drive tweeted, the drive becomes eligible again
// once the marker lapses.
const (
	SeenTTL    = 12 * time.Hour
	QueuedTTL  = 10 * time.Minute
	TweetedTTL = 12 * time.Hour
)

// Tracker deduplicates punt processing using Redis
type Tracker struct {
	client *redis.Client
}

// NewTracker creates a new dedup tracker
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{
		client: client,
	}
}

// Seen records a sighting of a drive and reports whether it had been seen
// before. The first sighting arms the drive; processing happens on a later
// cycle once ESPN's play data has settled.
func (t *Tracker) Seen(ctx context.Context, gameID, driveID string) (bool, error) {
	key := fmt.Sprintf("punt:seen:%s:%s", gameID, driveID)

	set, err := t.client.SetNX(ctx, key, "1", SeenTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set seen marker: %w", err)
	}

	return !set, nil
}

// MarkQueued records that a drive's punt has been published for tweeting.
func (t *Tracker) MarkQueued(ctx context.Context, gameID, driveID string) error {
	key := fmt.Sprintf("punt:queued:%s:%s", gameID, driveID)

	if err := t.client.Set(ctx, key, "1", QueuedTTL).Err(); err != nil {
		return fmt.Errorf("failed to set queued marker: %w", err)
	}
	return nil
}

// IsQueued reports whether a drive's punt is already in flight.
func (t *Tracker) IsQueued(ctx context.Context, gameID, driveID string) (bool, error) {
	key := fmt.Sprintf("punt:queued:%s:%s", gameID, driveID)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check queued marker: %w", err)
	}
	return exists > 0, nil
}

// MarkTweeted records that a drive's punt has been posted.
func (t *Tracker) MarkTweeted(ctx context.Context, gameID, driveID string) error {
	key := fmt.Sprintf("punt:tweeted:%s:%s", gameID, driveID)

	if err := t.client.Set(ctx, key, "1", TweetedTTL).Err(); err != nil {
		return fmt.Errorf("failed to set tweeted marker: %w", err)
	}
	return nil
}

// HasBeenTweeted reports whether a drive's punt was already posted.
func (t *Tracker) HasBeenTweeted(ctx context.Context, gameID, driveID string) (bool, error) {
	key := fmt.Sprintf("punt:tweeted:%s:%s", gameID, driveID)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check tweeted marker: %w", err)
	}
	return exists > 0, nil
}
