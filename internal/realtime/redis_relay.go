package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// RedisRelay fans events out to every instance through a Redis pub/sub
// channel. Each instance runs Listen and feeds its own Hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisRelay(client *redis.Client, channel string, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// Deliver implements Sink by publishing the event.
func (r *RedisRelay) Deliver(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

// Listen subscribes to the relay channel and hands every event to sink
// until ctx is done.
func (r *RedisRelay) Listen(ctx context.Context, sink Sink) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("realtime relay listening", slog.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("discarding malformed relay message", slog.String("error", err.Error()))
				continue
			}
			if err := sink.Deliver(ctx, event); err != nil {
				r.logger.Warn("relay delivery failed",
					slog.String("event_type", string(event.Type)),
					slog.String("error", err.Error()))
			}
		}
	}
}
