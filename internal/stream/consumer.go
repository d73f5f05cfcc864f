package stream

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	consumerGroup = "pressbox-ws"

	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second
)

// Broadcaster receives decoded stream messages for fan-out.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Update is the envelope forwarded to websocket clients.
type Update struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Consumer reads the update stream through a consumer group and fans
// messages out to the broadcaster.
type Consumer struct {
	client      *redis.Client
	stream      string
	consumerID  string
	broadcaster Broadcaster
}

// NewConsumer creates a consumer for the named stream. Each consumer
// gets a unique id within the group.
func NewConsumer(client *redis.Client, stream string, broadcaster Broadcaster) *Consumer {
	return &Consumer{
		client:      client,
		stream:      stream,
		consumerID:  "pressbox-" + uuid.NewString(),
		broadcaster: broadcaster,
	}
}

// Start consumes messages until the context is cancelled. Messages are
// acknowledged after broadcast; redeliveries are possible on crash.
func (c *Consumer) Start(ctx context.Context) {
	c.createConsumerGroup(ctx)

	log.Printf("[stream] ✓ Consuming %s as %s", c.stream, c.consumerID)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: c.consumerID,
				Streams:  []string{c.stream, ">"},
				Count:    batchSize,
				Block:    blockDuration,
			}).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.Printf("[stream] ⚠️  Read error: %v", err)
				time.Sleep(time.Second)
				continue
			}

			for _, s := range streams {
				for _, msg := range s.Messages {
					c.processMessage(ctx, msg)
				}
			}
		}
	}
}

// createConsumerGroup creates the group, starting from the beginning of
// the stream. An existing group is fine.
func (c *Consumer) createConsumerGroup(ctx context.Context) {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		log.Printf("[stream] ⚠️  Failed to create consumer group: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg redis.XMessage) {
	defer c.ackMessage(ctx, msg.ID)

	msgType, _ := msg.Values["type"].(string)
	data, ok := msg.Values["data"].(string)
	if !ok || msgType == "" {
		log.Printf("[stream] ⚠️  Skipping malformed message %s", msg.ID)
		return
	}

	var timestamp int64
	if raw, ok := msg.Values["timestamp"].(string); ok {
		timestamp, _ = strconv.ParseInt(raw, 10, 64)
	}

	encoded, err := json.Marshal(Update{
		Type:      msgType,
		Data:      json.RawMessage(data),
		Timestamp: timestamp,
	})
	if err != nil {
		log.Printf("[stream] ⚠️  Failed to encode message %s: %v", msg.ID, err)
		return
	}

	c.broadcaster.Broadcast(encoded)
}

func (c *Consumer) ackMessage(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.stream, consumerGroup, messageID).Err(); err != nil && ctx.Err() == nil {
		log.Printf("[stream] ⚠️  Failed to ack message %s: %v", messageID, err)
	}
}
