package display

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel snapshots are published on.
const DefaultChannel = "framefusion:guest"

// RedisPublisher publishes snapshots on a Redis channel, for guest screens
// driven by another machine.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher publishes on channel, DefaultChannel when empty.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Channel returns the channel name.
func (p *RedisPublisher) Channel() string { return p.channel }

// Broadcast publishes s as JSON.
func (p *RedisPublisher) Broadcast(ctx context.Context, s Snapshot) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscribe calls fn for every snapshot published on channel until ctx is
// done. Messages that do not decode are skipped.
func Subscribe(ctx context.Context, client redis.UniversalClient, channel string, fn func(Snapshot)) error {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			snap, err := DecodeSnapshot([]byte(msg.Payload))
			if err != nil {
				continue
			}
			fn(snap)
		}
	}
}

var _ Broadcaster = (*RedisPublisher)(nil)
