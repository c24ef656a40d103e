package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// streamMaxLen caps each stream; trimming is approximate.
const streamMaxLen = 10000

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish appends an event to stream and returns its stream id.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) (string, error) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"event": eventJSON,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return id, nil
}
