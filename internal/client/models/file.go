// Package models defines client-side data models used by the BoardPack desk CLI.
package models

import "time"

// Local upload states for a staged file. A file starts staged, gets linked to
// a server document when an upload intent is created, and flips to uploaded
// after the server confirms completion.
const (
	UploadStatusStaged   = "staged"
	UploadStatusLinked   = "linked"
	UploadStatusUploaded = "uploaded"
)

// StoredFile is one staged document held in the local store. Blob and
// metadata live in the same row, so a stored blob always has its metadata.
type StoredFile struct {
	// ID is a locally generated unique identifier.
	ID string

	// Filename is the original name of the staged file.
	Filename string

	// Size is the blob length in bytes.
	Size int64

	// MimeType is the detected or declared content type.
	MimeType string

	// Category groups documents inside a board package (e.g. "financials").
	Category string

	// Blob holds the file content. GetAll omits it; Get returns it verbatim.
	Blob []byte

	// UploadedAt is when the blob was saved locally, in UTC.
	UploadedAt time.Time

	// ApplicationID is the application this file belongs to.
	ApplicationID string

	// DocumentID links to the server-side document once an intent exists.
	DocumentID string

	// UploadStatus tracks the staged -> linked -> uploaded progression.
	UploadStatus string
}

// Usage reports local store occupancy against its configured capacity.
type Usage struct {
	UsedBytes int64
	MaxBytes  int64
}
