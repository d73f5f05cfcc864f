package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher writes ingestion updates to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher creates a publisher targeting the named stream.
func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
	}
}

// Publish appends one typed message to the stream. The payload is
// JSON-encoded under the data field.
func (p *Publisher) Publish(ctx context.Context, msgType string, data interface{}) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      msgType,
			"data":      string(encoded),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
