package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/dbx"
	"github.com/mpodriezov/boardpack/internal/server/models"
)

// PostgresRepository implements application storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (building, unit, status, applicant_id, broker_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		app.Building, app.Unit, app.Status, app.ApplicantID, nullString(app.BrokerID), app.CreatedBy).
		Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT id, building, unit, status, applicant_id, broker_id, created_by,
		       submitted_at, decided_at, created_at, updated_at
		FROM applications
		WHERE id = $1
	`
	app := &models.Application{}
	var broker sql.NullString
	var submitted, decided sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID, &app.Building, &app.Unit, &app.Status, &app.ApplicantID, &broker, &app.CreatedBy,
		&submitted, &decided, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	app.BrokerID = broker.String
	app.SubmittedAt = timePtr(submitted)
	app.DecidedAt = timePtr(decided)
	return app, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Application, error) {
	query := `
		SELECT id, building, unit, status, applicant_id, broker_id, created_by,
		       submitted_at, decided_at, created_at, updated_at
		FROM applications
		ORDER BY created_at DESC
	`
	return r.list(ctx, query)
}

func (r *PostgresRepository) ListByApplicant(ctx context.Context, userID string) ([]*models.Application, error) {
	query := `
		SELECT id, building, unit, status, applicant_id, broker_id, created_by,
		       submitted_at, decided_at, created_at, updated_at
		FROM applications
		WHERE applicant_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListByBroker(ctx context.Context, userID string) ([]*models.Application, error) {
	query := `
		SELECT id, building, unit, status, applicant_id, broker_id, created_by,
		       submitted_at, decided_at, created_at, updated_at
		FROM applications
		WHERE broker_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListPastDraft(ctx context.Context) ([]*models.Application, error) {
	query := `
		SELECT id, building, unit, status, applicant_id, broker_id, created_by,
		       submitted_at, decided_at, created_at, updated_at
		FROM applications
		WHERE status <> $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, models.StatusDraft)
}

// UpdateStatus performs a compare-and-swap on the status column. A zero
// rows-affected result means the application was not in the expected status
// anymore; callers are expected to have checked existence beforehand.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, from, to string, submittedAt, decidedAt *time.Time) error {
	query := `
		UPDATE applications
		SET status = $3,
		    submitted_at = COALESCE($4, submitted_at),
		    decided_at = COALESCE($5, decided_at),
		    updated_at = now()
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, from, to, nullTime(submittedAt), nullTime(decidedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrInvalidTransition
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select applications: %w", err)
	}
	defer rows.Close()

	var result []*models.Application
	for rows.Next() {
		var item models.Application
		var broker sql.NullString
		var submitted, decided sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.Building, &item.Unit, &item.Status, &item.ApplicantID, &broker, &item.CreatedBy,
			&submitted, &decided, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.BrokerID = broker.String
		item.SubmittedAt = timePtr(submitted)
		item.DecidedAt = timePtr(decided)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
