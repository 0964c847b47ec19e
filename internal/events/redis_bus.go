package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisBus fans signals out to every gateway instance through redis pub/sub.
// Versions are kept in redis so all instances agree on them.
type RedisBus struct {
	client   redisClient
	prefix   string
	registry *registry
	logger   *zap.Logger
}

// NewRedisBus constructs a bus publishing on channels named "<prefix>:<topic>".
func NewRedisBus(client redisClient, prefix string, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.TrimRight(prefix, ":")
	if prefix == "" {
		prefix = "formbase:refresh"
	}
	return &RedisBus{client: client, prefix: prefix, registry: newRegistry(), logger: logger}
}

// Publish increments the shared version and broadcasts the signal. Local
// subscribers receive it through Run like every other instance.
func (b *RedisBus) Publish(ctx context.Context, topic Topic, formID int64) (Signal, error) {
	version, err := b.client.Incr(ctx, b.versionKey(topic, formID)).Result()
	if err != nil {
		return Signal{}, fmt.Errorf("bump refresh version: %w", err)
	}
	sig := Signal{Topic: topic, FormID: formID, Version: uint64(version)}
	payload, err := json.Marshal(sig)
	if err != nil {
		return Signal{}, err
	}
	if err := b.client.Publish(ctx, b.channel(topic), payload).Err(); err != nil {
		return Signal{}, fmt.Errorf("publish refresh signal: %w", err)
	}
	return sig, nil
}

// Subscribe registers handler for topic.
func (b *RedisBus) Subscribe(topic Topic, handler Handler) func() {
	return b.registry.add(topic, handler)
}

// Run listens on every topic channel until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	channels := make([]string, 0, len(Topics))
	for _, t := range Topics {
		channels = append(channels, b.channel(t))
	}
	sub := b.client.Subscribe(ctx, channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe refresh channels: %w", err)
	}
	b.logger.Info("refresh bus subscribed", zap.Strings("channels", channels))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *RedisBus) deliver(payload string) {
	var sig Signal
	if err := json.Unmarshal([]byte(payload), &sig); err != nil {
		b.logger.Warn("discarding malformed refresh signal", zap.Error(err))
		return
	}
	if sig.Topic == "" {
		b.logger.Warn("discarding refresh signal without topic")
		return
	}
	b.registry.dispatch(sig)
}

func (b *RedisBus) channel(topic Topic) string {
	return b.prefix + ":" + string(topic)
}

func (b *RedisBus) versionKey(topic Topic, formID int64) string {
	return b.prefix + ":version:" + versionKey(topic, formID)
}
