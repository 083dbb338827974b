package api

import "time"

// Wire types mirroring the server's JSON bodies.

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type Application struct {
	ID          string     `json:"id"`
	Building    string     `json:"building"`
	Unit        string     `json:"unit"`
	Status      string     `json:"status"`
	ApplicantID string     `json:"applicant_id"`
	BrokerID    string     `json:"broker_id,omitempty"`
	CreatedBy   string     `json:"created_by"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Category      string    `json:"category"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	UploadStatus  string    `json:"upload_status"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// DocumentIntent is the server's answer to an upload intent: the pending
// document row plus a presigned PUT URL.
type DocumentIntent struct {
	Document  Document  `json:"document"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IntentRequest describes the document about to be uploaded.
type IntentRequest struct {
	Category    string `json:"category"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// Event is one realtime notification from the per-application stream.
type Event struct {
	Type          string         `json:"type"`
	ApplicationID string         `json:"application_id"`
	ActorID       string         `json:"actor_id"`
	At            time.Time      `json:"at"`
	Data          map[string]any `json:"data,omitempty"`
}
