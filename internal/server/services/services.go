// Package services contains server-side business logic for BoardPack:
// account management, the application status machine, document upload
// intents, and RFI message threads. Services own the authorization rules
// (the role-scoped visibility a hosted backend would express as row-level
// policies) and publish realtime events after successful mutations.
package services

import (
	"context"

	"github.com/mpodriezov/boardpack/internal/server/realtime"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role string
}

// Publisher delivers realtime events to application channels. The redis hub
// implements it; tests use fakes. Publish failures are not fatal to the
// mutation that triggered them.
type Publisher interface {
	Publish(ctx context.Context, event *realtime.Event) error
}

// NopPublisher discards events. Useful in tests and tooling.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event *realtime.Event) error { return nil }
