// Package messages declares the server-side repository contract for
// request-for-information threads on applications.
package messages

import (
	"context"

	"github.com/mpodriezov/boardpack/internal/server/models"
)

// Repository defines storage operations for RFI messages.
type Repository interface {
	// Create inserts a message and returns it with server-assigned fields.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)

	// GetByID returns one message or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListByApplication returns the messages of one application, oldest first.
	ListByApplication(ctx context.Context, applicationID string) ([]*models.Message, error)

	// Resolve marks an open message resolved, recording who closed it.
	// Resolving an already-resolved message yields common.ErrorConflict.
	Resolve(ctx context.Context, id, resolvedBy string) error
}
