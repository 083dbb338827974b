package models

import "time"

// Document upload states. A row is created as pending when an upload intent
// is issued and flips to completed once the client confirms the PUT.
const (
	UploadStatusPending   = "pending"
	UploadStatusCompleted = "completed"
)

// Document describes server-side metadata for one file in a board package.
// The content itself lives in object storage under StorageKey.
type Document struct {
	ID            string
	ApplicationID string
	// Category groups documents inside a package (e.g. "financials",
	// "reference-letters", "lead-paint-disclosure").
	Category     string
	Filename     string
	Size         int64
	ContentType  string
	StorageKey   string
	UploadStatus string
	UploadedBy   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentUploadTask instructs a client to upload a document's content using
// a presigned URL.
type DocumentUploadTask struct {
	DocumentID string
	// URL is a temporary presigned HTTP URL for the client to PUT the bytes.
	URL string
	// ExpiresAt is the instant the presigned URL stops being accepted.
	ExpiresAt time.Time
}
