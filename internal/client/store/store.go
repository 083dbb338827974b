// Package store implements the desk client's local staging area: a sqlite
// database holding file blobs and their metadata in a single table. Capacity
// is enforced on Save; there is no eviction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mpodriezov/boardpack/internal/client/migrations"
	"github.com/mpodriezov/boardpack/internal/client/models"
	"github.com/mpodriezov/boardpack/internal/common"
)

// Store is the sqlite-backed local file store.
type Store struct {
	db       *sql.DB
	maxBytes int64
}

// Open opens (creating if needed) the staging database at dsn, applies
// migrations, and returns a Store capped at maxBytes.
func Open(ctx context.Context, dsn string, maxBytes int64) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate staging db: %w", err)
	}
	return &Store{db: db, maxBytes: maxBytes}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a staged file, blob and metadata in one row. A missing ID is
// generated and UploadedAt defaults to now. Exceeding capacity returns
// ErrStorageFull without writing anything.
func (s *Store) Save(ctx context.Context, f *models.StoredFile) error {
	used, err := s.usedBytes(ctx)
	if err != nil {
		return err
	}
	if used+int64(len(f.Blob)) > s.maxBytes {
		return common.ErrStorageFull
	}

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	f.Size = int64(len(f.Blob))
	if f.UploadStatus == "" {
		f.UploadStatus = models.UploadStatusStaged
	}

	query := `INSERT INTO files (id, filename, size, mime_type, category, blob, uploaded_at, application_id, document_id, upload_status)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		f.ID, f.Filename, f.Size, f.MimeType, f.Category, f.Blob, f.UploadedAt, f.ApplicationID, f.DocumentID, f.UploadStatus)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

// Get returns one stored file including its blob, byte for byte as saved.
func (s *Store) Get(ctx context.Context, id string) (*models.StoredFile, error) {
	query := `select id, filename, size, mime_type, category, blob, uploaded_at, application_id, document_id, upload_status
			from files where id=?`
	row := s.db.QueryRowContext(ctx, query, id)

	f := &models.StoredFile{}
	err := row.Scan(&f.ID, &f.Filename, &f.Size, &f.MimeType, &f.Category, &f.Blob, &f.UploadedAt, &f.ApplicationID, &f.DocumentID, &f.UploadStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return f, nil
}

// GetAll lists metadata for every stored file. Blobs are not loaded.
func (s *Store) GetAll(ctx context.Context) ([]models.StoredFile, error) {
	query := `select id, filename, size, mime_type, category, uploaded_at, application_id, document_id, upload_status
			from files order by uploaded_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []models.StoredFile
	for rows.Next() {
		var f models.StoredFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.Size, &f.MimeType, &f.Category, &f.UploadedAt, &f.ApplicationID, &f.DocumentID, &f.UploadStatus); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a stored file and frees its space.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from files where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Usage reports current occupancy against the configured capacity.
func (s *Store) Usage(ctx context.Context) (*models.Usage, error) {
	used, err := s.usedBytes(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Usage{UsedBytes: used, MaxBytes: s.maxBytes}, nil
}

func (s *Store) usedBytes(ctx context.Context) (int64, error) {
	var used int64
	row := s.db.QueryRowContext(ctx, `select coalesce(sum(size), 0) from files`)
	if err := row.Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return used, nil
}

// LinkDocument records the server-side document created for a staged file.
func (s *Store) LinkDocument(ctx context.Context, id, documentID string) error {
	return s.update(ctx, `update files set document_id=?, upload_status=? where id=?`,
		documentID, models.UploadStatusLinked, id)
}

// MarkUploaded flips a file to uploaded once the server confirms completion.
func (s *Store) MarkUploaded(ctx context.Context, id string) error {
	return s.update(ctx, `update files set upload_status=? where id=?`,
		models.UploadStatusUploaded, id)
}

// PendingUploads returns files for an application that have not finished
// uploading, blobs included so they can be PUT directly.
func (s *Store) PendingUploads(ctx context.Context, applicationID string) ([]models.StoredFile, error) {
	query := `select id, filename, size, mime_type, category, blob, uploaded_at, application_id, document_id, upload_status
			from files where application_id=? and upload_status<>? order by uploaded_at`
	rows, err := s.db.QueryContext(ctx, query, applicationID, models.UploadStatusUploaded)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending files: %w", err)
	}
	defer rows.Close()

	var result []models.StoredFile
	for rows.Next() {
		var f models.StoredFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.Size, &f.MimeType, &f.Category, &f.Blob, &f.UploadedAt, &f.ApplicationID, &f.DocumentID, &f.UploadStatus); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
