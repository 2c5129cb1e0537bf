package basket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const relayChannelPrefix = "basket-changed:"

// RedisRelay carries basket change hints between storefront instances that
// share one basket store. Writes are last-write-wins across instances.
type RedisRelay struct {
	client     *redis.Client
	instanceID string
	hub        *Hub
	log        *slog.Logger
	pubsub     *redis.PubSub
}

func NewRedisRelay(client *redis.Client, instanceID string, hub *Hub, log *slog.Logger) *RedisRelay {
	return &RedisRelay{
		client:     client,
		instanceID: instanceID,
		hub:        hub,
		log:        log,
	}
}

// Publish implements Publisher. The payload is the sender's instance id so
// the sender can skip its own hint.
func (r *RedisRelay) Publish(ctx context.Context, profileID string) error {
	if err := r.client.Publish(ctx, relayChannel(profileID), r.instanceID).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Subscribe starts listening for hints. It returns once Redis confirmed the
// subscription; Run then forwards the hints.
func (r *RedisRelay) Subscribe(ctx context.Context) error {
	ps := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis psubscribe failed: %w", err)
	}
	r.pubsub = ps
	return nil
}

// Run forwards hints from other instances into the local hub until ctx is
// done or the subscription is closed.
func (r *RedisRelay) Run(ctx context.Context) {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload == r.instanceID {
				continue
			}
			profileID := strings.TrimPrefix(msg.Channel, relayChannelPrefix)
			r.log.DebugContext(ctx, "basket change from peer", slog.String("profile", profileID))
			r.hub.deliver(profileID)
		}
	}
}

func (r *RedisRelay) Close() {
	if r.pubsub == nil {
		return
	}
	if err := r.pubsub.Close(); err != nil {
		r.log.Warn("error closing basket relay", slog.Any("error", err))
	}
}

func relayChannel(profileID string) string {
	return relayChannelPrefix + profileID
}
