package channel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisConnector opens channels backed by Redis Pub/Sub.
type RedisConnector struct {
	rdb *redis.Client
}

// NewRedisConnector wraps an existing Redis client.
func NewRedisConnector(rdb *redis.Client) *RedisConnector {
	return &RedisConnector{rdb: rdb}
}

// Subscribe joins the named topic. Delivery does not start until OnMessage
// is registered on the returned handle.
func (c *RedisConnector) Subscribe(ctx context.Context, name string) (Handle, error) {
	pubsub := c.rdb.Subscribe(ctx, name)
	// Force the SUBSCRIBE round-trip so a bad connection fails here, not on
	// first delivery.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}
	return &redisHandle{rdb: c.rdb, pubsub: pubsub, name: name}, nil
}

type redisHandle struct {
	rdb    *redis.Client
	pubsub *redis.PubSub
	name   string

	once sync.Once
}

func (h *redisHandle) OnMessage(cb func(payload []byte)) {
	h.once.Do(func() {
		go func() {
			for msg := range h.pubsub.Channel() {
				cb([]byte(msg.Payload))
			}
		}()
	})
}

func (h *redisHandle) Publish(ctx context.Context, payload []byte) error {
	if err := h.rdb.Publish(ctx, h.name, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", h.name, err)
	}
	return nil
}

func (h *redisHandle) Leave() error {
	if err := h.pubsub.Close(); err != nil {
		log.Printf("channel leave error name=%s err=%v", h.name, err)
		return err
	}
	return nil
}

var _ Connector = (*RedisConnector)(nil)
