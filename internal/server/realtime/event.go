// Package realtime fans application events out to connected clients through
// Redis pub/sub. Every application has its own channel; presence is tracked
// with per-user TTL keys so dead members disappear on their own.
package realtime

import "time"

// Event types published on an application channel.
const (
	EventApplicationStatus = "application.status"
	EventDocumentCompleted = "document.completed"
	EventMessageCreated    = "message.created"
	EventMessageResolved   = "message.resolved"
	EventPresenceJoin      = "presence.join"
	EventPresenceLeave     = "presence.leave"
	EventTyping            = "typing"
)

// Event is one realtime notification about an application. Typing events are
// ephemeral: they are published and never stored.
type Event struct {
	Type          string         `json:"type"`
	ApplicationID string         `json:"application_id"`
	ActorID       string         `json:"actor_id"`
	At            time.Time      `json:"at"`
	Data          map[string]any `json:"data,omitempty"`
}
