// Package publisher pushes detected punts onto the Redis stream the tweeter
// and websocket hub consume from.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// PuntStream is the stream every detected punt is published to.
const PuntStream = "punts.detected"

// maxStreamLen caps the stream; a full season is a few thousand punts.
const maxStreamLen = 4096

// StreamPublisher publishes punt events to Redis Streams
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// Publish pushes a single punt event onto the stream.
func (p *StreamPublisher) Publish(ctx context.Context, event models.PuntEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal punt event: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: PuntStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_type": "punt.detected",
			"data":       string(eventJSON),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", PuntStream, err)
	}

	return nil
}
