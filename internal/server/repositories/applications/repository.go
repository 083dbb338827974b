// Package applications declares the server-side repository contract for
// board package persistence.
package applications

import (
	"context"
	"time"

	"github.com/mpodriezov/boardpack/internal/server/models"
)

// Repository defines storage operations for applications.
type Repository interface {
	// Create inserts a new application and returns it with server-assigned fields.
	Create(ctx context.Context, app *models.Application) (*models.Application, error)

	// GetByID returns one application or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Application, error)

	// ListAll returns every application, newest first.
	ListAll(ctx context.Context) ([]*models.Application, error)

	// ListByApplicant returns applications owned by the given applicant.
	ListByApplicant(ctx context.Context, userID string) ([]*models.Application, error)

	// ListByBroker returns applications brokered by the given user.
	ListByBroker(ctx context.Context, userID string) ([]*models.Application, error)

	// ListPastDraft returns applications that have left draft, newest first.
	ListPastDraft(ctx context.Context) ([]*models.Application, error)

	// UpdateStatus moves an application from one status to another as a
	// compare-and-swap: if the row is no longer in the expected status the
	// update affects nothing and common.ErrInvalidTransition is returned.
	// Non-nil submittedAt/decidedAt are recorded alongside the transition.
	UpdateStatus(ctx context.Context, id, from, to string, submittedAt, decidedAt *time.Time) error
}
