package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/dbx"
	"github.com/mpodriezov/boardpack/internal/server/models"
)

// PostgresRepository implements RFI message storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (application_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, msg.ApplicationID, msg.AuthorID, msg.Body).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, application_id, author_id, body, resolved, resolved_by, resolved_at, created_at
		FROM messages
		WHERE id = $1
	`
	msg := &models.Message{}
	var resolvedBy sql.NullString
	var resolvedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.ApplicationID, &msg.AuthorID, &msg.Body, &msg.Resolved, &resolvedBy, &resolvedAt, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	msg.ResolvedBy = resolvedBy.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		msg.ResolvedAt = &t
	}
	return msg, nil
}

func (r *PostgresRepository) ListByApplication(ctx context.Context, applicationID string) ([]*models.Message, error) {
	query := `
		SELECT id, application_id, author_id, body, resolved, resolved_by, resolved_at, created_at
		FROM messages
		WHERE application_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		var item models.Message
		var resolvedBy sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.ApplicationID, &item.AuthorID, &item.Body, &item.Resolved, &resolvedBy, &resolvedAt, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.ResolvedBy = resolvedBy.String
		if resolvedAt.Valid {
			t := resolvedAt.Time
			item.ResolvedAt = &t
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Resolve closes an open message. Zero rows affected means the message is
// already resolved; callers are expected to have checked existence first.
func (r *PostgresRepository) Resolve(ctx context.Context, id, resolvedBy string) error {
	query := `
		UPDATE messages
		SET resolved = true, resolved_by = $2, resolved_at = now()
		WHERE id = $1 AND resolved = false
	`
	res, err := r.db.ExecContext(ctx, query, id, resolvedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorConflict
	}
	return nil
}
