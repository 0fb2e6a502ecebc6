package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/carenest/CareNest/app/models"
)

const feedChannelPrefix = "carenest:conversation:"

// RedisFeed carries accepted messages over Redis pub/sub so every app
// instance sees the same per-conversation stream in publish order.
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed creates a feed on top of an existing Redis client.
func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func feedChannel(conversationID uint) string {
	return fmt.Sprintf("%s%d", feedChannelPrefix, conversationID)
}

// Publish serializes the message onto the conversation's channel.
func (f *RedisFeed) Publish(ctx context.Context, conversationID uint, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, feedChannel(conversationID), payload).Err()
}

// Subscribe opens a per-conversation pub/sub channel. Redis delivers
// published payloads to each subscriber in publish order, which is what the
// hub's single reader relies on.
func (f *RedisFeed) Subscribe(ctx context.Context, conversationID uint) (<-chan models.Message, func(), error) {
	pubsub := f.client.Subscribe(ctx, feedChannel(conversationID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan models.Message)
	go func() {
		defer close(out)
		for raw := range pubsub.Channel() {
			var msg models.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				log.Warnf("[Messaging] dropping malformed feed payload: %v", err)
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() {
		_ = pubsub.Close()
	}
	return out, stop, nil
}
