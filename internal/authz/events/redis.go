package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying RoleChanged events.
const Channel = "authz:rolechanged"

// RedisPublisher broadcasts role-change events over Redis pub/sub so
// every engine instance observes administrative edits.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher constructs a publisher on the given client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishRoleChanged implements Publisher.
func (p *RedisPublisher) PublishRoleChanged(ctx context.Context, ev RoleChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal role changed: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("events: publish role changed: %w", err)
	}
	return nil
}

// RedisSubscriber consumes RoleChanged events from Redis pub/sub.
type RedisSubscriber struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisSubscriber constructs a subscriber on the given client.
func NewRedisSubscriber(client *redis.Client, logger *slog.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, logger: logger}
}

// Run blocks delivering events to handler until the context is
// cancelled. Malformed payloads are logged and skipped.
func (s *RedisSubscriber) Run(ctx context.Context, handler func(context.Context, RoleChanged)) error {
	sub := s.client.Subscribe(ctx, Channel)
	defer func() {
		_ = sub.Close()
	}()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev RoleChanged
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				if s.logger != nil {
					s.logger.Error("decode role changed event", slog.Any("error", err))
				}
				continue
			}
			handler(ctx, ev)
		}
	}
}
