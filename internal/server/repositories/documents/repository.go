// Package documents declares the server-side repository contract for
// document metadata. Document content lives in object storage; these rows
// track category, upload state, and the storage key.
package documents

import (
	"context"

	"github.com/mpodriezov/boardpack/internal/server/models"
)

// Repository defines storage operations for document metadata.
type Repository interface {
	// Create inserts a pending document row and returns it with
	// server-assigned fields.
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)

	// GetByID returns one document or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// ListByApplication returns the documents of one application, oldest first.
	ListByApplication(ctx context.Context, applicationID string) ([]*models.Document, error)

	// MarkCompleted flips upload_status to completed. Exactly one row must be
	// affected.
	MarkCompleted(ctx context.Context, id string) error

	// Delete removes a document row. Missing rows yield common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
