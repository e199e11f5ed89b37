// Package cache stores scoreboard and game summary snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// TTL constants
const (
	ScoreboardTTL  = 24 * time.Hour
	GameSummaryTTL = 2 * time.Minute
)

const scoreboardKey = "scoreboard:nfl"

// RedisWriter handles reading and writing game data in Redis
type RedisWriter struct {
	client *redis.Client
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client *redis.Client) *RedisWriter {
	return &RedisWriter{
		client: client,
	}
}

// WriteScoreboard stores the day's scheduled games.
func (w *RedisWriter) WriteScoreboard(ctx context.Context, games []models.ScheduledGame) error {
	data, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("marshaling scoreboard: %w", err)
	}

	return w.client.Set(ctx, scoreboardKey, data, ScoreboardTTL).Err()
}

// ReadScoreboard retrieves the cached scheduled games.
func (w *RedisWriter) ReadScoreboard(ctx context.Context) ([]models.ScheduledGame, error) {
	data, err := w.client.Get(ctx, scoreboardKey).Result()
	if err != nil {
		return nil, err
	}

	var games []models.ScheduledGame
	if err := json.Unmarshal([]byte(data), &games); err != nil {
		return nil, fmt.Errorf("unmarshaling scoreboard: %w", err)
	}

	return games, nil
}

// WriteGameSummary stores a raw game summary payload. The short TTL keeps
// only the freshest snapshot around between poll cycles.
func (w *RedisWriter) WriteGameSummary(ctx context.Context, gameID string, raw map[string]interface{}) error {
	key := fmt.Sprintf("game:nfl:%s:summary", gameID)

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling game summary: %w", err)
	}

	return w.client.Set(ctx, key, data, GameSummaryTTL).Err()
}

// ReadGameSummary retrieves a raw game summary payload.
func (w *RedisWriter) ReadGameSummary(ctx context.Context, gameID string) (map[string]interface{}, error) {
	key := fmt.Sprintf("game:nfl:%s:summary", gameID)

	data, err := w.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling game summary: %w", err)
	}

	return raw, nil
}

// Ping verifies the Redis connection.
func (w *RedisWriter) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}
