package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommands implements Commands in memory, close enough to Redis for the
// presence logic: string keys with optional TTL flags and plain string sets.
type fakeCommands struct {
	keys      map[string]bool
	sets      map[string]map[string]bool
	published []*Event
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		keys: map[string]bool{},
		sets: map[string]map[string]bool{},
	}
}

func (f *fakeCommands) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	event := &Event{}
	if err := json.Unmarshal(message.([]byte), event); err != nil {
		return redis.NewIntResult(0, err)
	}
	f.published = append(f.published, event)
	return redis.NewIntResult(1, nil)
}

func (f *fakeCommands) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if f.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(f.keys[key], nil)
}

func (f *fakeCommands) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	set := f.sets[key]
	if set == nil {
		set = map[string]bool{}
		f.sets[key] = set
	}
	for _, m := range members {
		set[m.(string)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeCommands) SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	for _, m := range members {
		delete(f.sets[key], m.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeCommands) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	var members []string
	for m := range f.sets[key] {
		members = append(members, m)
	}
	return redis.NewStringSliceResult(members, nil)
}

func (f *fakeCommands) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if f.keys[k] {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeCommands) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if f.keys[k] {
			n++
		}
		delete(f.keys, k)
	}
	return redis.NewIntResult(n, nil)
}

func newTestHub(f *fakeCommands) *Hub {
	return &Hub{cmd: f, presenceTTL: 30 * time.Second, now: time.Now}
}

func eventTypes(events []*Event) []string {
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestHeartbeat_FirstJoinPublishes(t *testing.T) {
	f := newFakeCommands()
	h := newTestHub(f)
	ctx := context.Background()

	require.NoError(t, h.Heartbeat(ctx, "app-1", "u-1"))
	require.NoError(t, h.Heartbeat(ctx, "app-1", "u-1"))

	// Only the first heartbeat announces a join.
	assert.Equal(t, []string{EventPresenceJoin}, eventTypes(f.published))
	assert.Equal(t, "u-1", f.published[0].ActorID)

	present, err := h.Present(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, present)
}

func TestPresent_PrunesExpiredMembers(t *testing.T) {
	f := newFakeCommands()
	h := newTestHub(f)
	ctx := context.Background()

	require.NoError(t, h.Heartbeat(ctx, "app-1", "u-1"))
	require.NoError(t, h.Heartbeat(ctx, "app-1", "u-2"))

	// Simulate u-2's TTL key expiring while it is still in the member set.
	delete(f.keys, presenceMemberKey("app-1", "u-2"))

	present, err := h.Present(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, present)

	types := eventTypes(f.published)
	assert.Contains(t, types, EventPresenceLeave)
	last := f.published[len(f.published)-1]
	assert.Equal(t, "u-2", last.ActorID)

	// The pruned member is gone from the set, so a second listing does not
	// publish another leave.
	before := len(f.published)
	_, err = h.Present(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, before, len(f.published))
}

func TestLeave_RemovesImmediately(t *testing.T) {
	f := newFakeCommands()
	h := newTestHub(f)
	ctx := context.Background()

	require.NoError(t, h.Heartbeat(ctx, "app-1", "u-1"))
	require.NoError(t, h.Leave(ctx, "app-1", "u-1"))

	present, err := h.Present(ctx, "app-1")
	require.NoError(t, err)
	assert.Empty(t, present)
	assert.Equal(t, []string{EventPresenceJoin, EventPresenceLeave}, eventTypes(f.published))
}

func TestTyping_PublishesEphemeralEvent(t *testing.T) {
	f := newFakeCommands()
	h := newTestHub(f)

	require.NoError(t, h.Typing(context.Background(), "app-1", "u-1"))
	require.Len(t, f.published, 1)
	assert.Equal(t, EventTyping, f.published[0].Type)
	assert.False(t, f.published[0].At.IsZero())
	// Nothing is stored for typing.
	assert.Empty(t, f.keys)
	assert.Empty(t, f.sets)
}
