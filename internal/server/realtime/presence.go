package realtime

import (
	"context"
	"fmt"
)

func presenceMemberKey(applicationID, userID string) string {
	return fmt.Sprintf("boardpack:presence:%s:%s", applicationID, userID)
}

func presenceSetKey(applicationID string) string {
	return "boardpack:presence:" + applicationID
}

// Heartbeat records that userID is currently viewing the application. The
// first heartbeat joins the member set and publishes a presence.join event;
// subsequent ones only refresh the TTL. Clients are expected to call this on
// an interval shorter than the presence TTL.
func (h *Hub) Heartbeat(ctx context.Context, applicationID, userID string) error {
	key := presenceMemberKey(applicationID, userID)

	fresh, err := h.cmd.SetNX(ctx, key, "1", h.presenceTTL).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !fresh {
		if err := h.cmd.Expire(ctx, key, h.presenceTTL).Err(); err != nil {
			return fmt.Errorf("redis expire failed: %w", err)
		}
		return nil
	}

	if err := h.cmd.SAdd(ctx, presenceSetKey(applicationID), userID).Err(); err != nil {
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	return h.Publish(ctx, &Event{
		Type:          EventPresenceJoin,
		ApplicationID: applicationID,
		ActorID:       userID,
	})
}

// Present lists the users currently viewing the application. Members whose
// TTL key has expired are pruned from the set and announced as left.
func (h *Hub) Present(ctx context.Context, applicationID string) ([]string, error) {
	members, err := h.cmd.SMembers(ctx, presenceSetKey(applicationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}

	var alive []string
	for _, userID := range members {
		n, err := h.cmd.Exists(ctx, presenceMemberKey(applicationID, userID)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis exists failed: %w", err)
		}
		if n == 0 {
			if err := h.prune(ctx, applicationID, userID); err != nil {
				return nil, err
			}
			continue
		}
		alive = append(alive, userID)
	}
	return alive, nil
}

// Leave removes userID from the application's presence immediately, without
// waiting for the TTL to lapse.
func (h *Hub) Leave(ctx context.Context, applicationID, userID string) error {
	if err := h.cmd.Del(ctx, presenceMemberKey(applicationID, userID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return h.prune(ctx, applicationID, userID)
}

func (h *Hub) prune(ctx context.Context, applicationID, userID string) error {
	if err := h.cmd.SRem(ctx, presenceSetKey(applicationID), userID).Err(); err != nil {
		return fmt.Errorf("redis srem failed: %w", err)
	}
	return h.Publish(ctx, &Event{
		Type:          EventPresenceLeave,
		ApplicationID: applicationID,
		ActorID:       userID,
	})
}

// Typing publishes an ephemeral typing indicator. Nothing is stored; clients
// age the indicator out on their own.
func (h *Hub) Typing(ctx context.Context, applicationID, userID string) error {
	return h.Publish(ctx, &Event{
		Type:          EventTyping,
		ApplicationID: applicationID,
		ActorID:       userID,
	})
}
