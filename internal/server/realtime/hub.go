package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Commands is the subset of redis operations the hub uses. *redis.Client
// satisfies it; tests can supply a fake returning redis.New*Result values.
type Commands interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Hub publishes and subscribes application events over Redis. One pub/sub
// channel per application keeps fan-out independent between board packages.
type Hub struct {
	cmd         Commands
	client      *redis.Client
	presenceTTL time.Duration
	now         func() time.Time
}

// NewHub wraps an established Redis client. presenceTTL bounds how long a
// member stays listed after its last heartbeat.
func NewHub(client *redis.Client, presenceTTL time.Duration) *Hub {
	return &Hub{
		cmd:         client,
		client:      client,
		presenceTTL: presenceTTL,
		now:         time.Now,
	}
}

func channelName(applicationID string) string {
	return "boardpack:app:" + applicationID
}

// Publish sends the event to everyone subscribed to its application channel.
// Events are fire-and-forget: nobody listening is not an error.
func (h *Hub) Publish(ctx context.Context, event *Event) error {
	if event.At.IsZero() {
		event.At = h.now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	if err := h.cmd.Publish(ctx, channelName(event.ApplicationID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Subscribe starts listening on one application channel and returns a channel
// of decoded events plus a stop function. The event channel is closed when
// the subscription ends. Malformed payloads are skipped.
func (h *Hub) Subscribe(ctx context.Context, applicationID string) (<-chan *Event, func(), error) {
	ps := h.client.Subscribe(ctx, channelName(applicationID))

	// Confirm the subscription before handing the channel to the caller so
	// no event published after Subscribe returns is lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	out := make(chan *Event)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			event := &Event{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() { _ = ps.Close() }
	return out, stop, nil
}
