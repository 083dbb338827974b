package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/server/config"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/repositories/repomanager"
)

// ObjectStore is the slice of the S3 wrapper the document service needs.
type ObjectStore interface {
	// PresignedPutURL allocates a storage key and returns an upload URL plus
	// its expiry instant.
	PresignedPutURL(ctx context.Context) (key string, url string, expiresAt time.Time, err error)

	// PresignedGetURL returns a download URL for the object at key.
	PresignedGetURL(ctx context.Context, key string) (url string, expiresAt time.Time, err error)

	// DeleteObject removes the object at key.
	DeleteObject(ctx context.Context, key string) error
}

// DocumentService manages document metadata and brokers presigned access to
// the object store. Bytes never pass through the API server: clients PUT and
// GET directly against the bucket.
//
// There is deliberately no transactional coupling between rows and objects.
// An upload intent whose PUT never happens stays a pending row; a crashed
// delete can leave an orphaned object. Both are reconciled out of band.
type DocumentService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	store          ObjectStore
	publisher      Publisher
	maxUploadBytes int64
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, p Publisher, cfg *config.Config) *DocumentService {
	return &DocumentService{
		db:             db,
		repomanager:    m,
		store:          store,
		publisher:      p,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// CreateIntentInput describes the document a client wants to upload.
type CreateIntentInput struct {
	ApplicationID string
	Category      string
	Filename      string
	Size          int64
	ContentType   string
}

// CreateIntent inserts a pending document row and returns it together with a
// presigned PUT task. Owners may upload while the package is draft or
// needs_info; agents may upload at any pre-decision status (paper digitizing
// continues during review).
func (s *DocumentService) CreateIntent(ctx context.Context, actor Actor, in CreateIntentInput) (*models.Document, *models.DocumentUploadTask, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, nil, fmt.Errorf("filename is required")
	}
	if in.Size <= 0 {
		return nil, nil, fmt.Errorf("size must be positive")
	}
	if in.Size > s.maxUploadBytes {
		return nil, nil, common.ErrUploadTooLarge
	}

	app, err := s.repomanager.Applications(s.db).GetByID(ctx, in.ApplicationID)
	if err != nil {
		return nil, nil, err
	}
	if !canUpload(actor, app) {
		return nil, nil, common.ErrorForbidden
	}

	key, url, expiresAt, err := s.store.PresignedPutURL(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error presigning upload: %w", err)
	}

	doc := &models.Document{
		ApplicationID: in.ApplicationID,
		Category:      in.Category,
		Filename:      in.Filename,
		Size:          in.Size,
		ContentType:   in.ContentType,
		StorageKey:    key,
		UploadStatus:  models.UploadStatusPending,
		UploadedBy:    actor.ID,
	}
	doc, err = s.repomanager.Documents(s.db).Create(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating document: %w", err)
	}

	task := &models.DocumentUploadTask{DocumentID: doc.ID, URL: url, ExpiresAt: expiresAt}
	return doc, task, nil
}

// Complete flips a pending document to completed after the client's PUT
// succeeded, and announces it on the application channel.
func (s *DocumentService) Complete(ctx context.Context, actor Actor, documentID string) (*models.Document, error) {
	doc, app, err := s.getWithApplication(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UploadedBy != actor.ID && actor.Role != models.RoleAgent {
		return nil, common.ErrorForbidden
	}
	if doc.UploadStatus == models.UploadStatusCompleted {
		return nil, common.ErrorConflict
	}

	if err := s.repomanager.Documents(s.db).MarkCompleted(ctx, documentID); err != nil {
		return nil, fmt.Errorf("error completing document: %w", err)
	}
	doc.UploadStatus = models.UploadStatusCompleted

	_ = s.publisher.Publish(ctx, &realtime.Event{
		Type:          realtime.EventDocumentCompleted,
		ApplicationID: app.ID,
		ActorID:       actor.ID,
		Data:          map[string]any{"document_id": doc.ID, "category": doc.Category},
	})
	return doc, nil
}

// List returns the documents of an application the actor can see.
func (s *DocumentService) List(ctx context.Context, actor Actor, applicationID string) ([]*models.Document, error) {
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, app) {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Documents(s.db).ListByApplication(ctx, applicationID)
}

// SignedURL returns a time-limited download URL for a completed document.
func (s *DocumentService) SignedURL(ctx context.Context, actor Actor, documentID string) (string, time.Time, error) {
	doc, app, err := s.getWithApplication(ctx, documentID)
	if err != nil {
		return "", time.Time{}, err
	}
	if !canSee(actor, app) {
		return "", time.Time{}, common.ErrorForbidden
	}
	if doc.UploadStatus != models.UploadStatusCompleted {
		return "", time.Time{}, common.ErrorNotFound
	}
	url, expiresAt, err := s.store.PresignedGetURL(ctx, doc.StorageKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error presigning download: %w", err)
	}
	return url, expiresAt, nil
}

// Delete removes a document's object and row. Owners may delete only while
// the package is still a draft; agents may delete at any pre-decision status.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, documentID string) error {
	doc, app, err := s.getWithApplication(ctx, documentID)
	if err != nil {
		return err
	}
	if !canDelete(actor, app) {
		return common.ErrorForbidden
	}

	if err := s.store.DeleteObject(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("error deleting object: %w", err)
	}
	return s.repomanager.Documents(s.db).Delete(ctx, documentID)
}

func (s *DocumentService) getWithApplication(ctx context.Context, documentID string) (*models.Document, *models.Application, error) {
	doc, err := s.repomanager.Documents(s.db).GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, doc.ApplicationID)
	if err != nil {
		return nil, nil, err
	}
	return doc, app, nil
}

func canUpload(actor Actor, app *models.Application) bool {
	if actor.Role == models.RoleAgent {
		return !models.TerminalStatus(app.Status)
	}
	if !isOwner(actor, app) {
		return false
	}
	return app.Status == models.StatusDraft || app.Status == models.StatusNeedsInfo
}

func canDelete(actor Actor, app *models.Application) bool {
	if actor.Role == models.RoleAgent {
		return !models.TerminalStatus(app.Status)
	}
	return isOwner(actor, app) && app.Status == models.StatusDraft
}
