package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel used for realtime fanout.
const DefaultRedisChannel = "facilita:realtime"

// fanoutMessage is what travels over the Redis channel.
type fanoutMessage struct {
	UserID   string   `json:"userId"`
	Envelope Envelope `json:"envelope"`
}

// RedisBroadcaster fans envelopes out to every instance subscribed to the
// same Redis channel.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisBroadcaster creates a new RedisBroadcaster.
func NewRedisBroadcaster(client *redis.Client, channel string, logger *slog.Logger) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroadcaster{client: client, channel: channel, logger: logger}
}

// Publish sends env for userID to all instances.
func (b *RedisBroadcaster) Publish(ctx context.Context, userID string, env Envelope) error {
	raw, err := encodeFanout(userID, env)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe calls deliver for every envelope published on the channel until
// ctx is done.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, deliver func(userID string, env Envelope)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, env, err := decodeFanout(msg.Payload)
			if err != nil {
				b.logger.Warn("gateway: malformed fanout message", "error", err)
				continue
			}
			deliver(userID, env)
		}
	}
}

func encodeFanout(userID string, env Envelope) (string, error) {
	raw, err := json.Marshal(fanoutMessage{UserID: userID, Envelope: env})
	if err != nil {
		return "", fmt.Errorf("encoding fanout message: %w", err)
	}
	return string(raw), nil
}

func decodeFanout(payload string) (string, Envelope, error) {
	var m fanoutMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return "", Envelope{}, err
	}
	if m.UserID == "" || m.Envelope.Event == "" {
		return "", Envelope{}, fmt.Errorf("missing user or event")
	}
	// Sequence numbers are assigned by the receiving instance.
	m.Envelope.Seq = 0
	return m.UserID, m.Envelope, nil
}
