package models

import "time"

// Message is a request-for-information thread entry on an application.
// Board members and agents raise them; resolving one records who closed it.
type Message struct {
	ID            string
	ApplicationID string
	AuthorID      string
	Body          string
	Resolved      bool
	// ResolvedBy is empty while the message is open.
	ResolvedBy string
	ResolvedAt *time.Time
	CreatedAt  time.Time
}
