package refreshtokens

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create issues a refresh token for userID, valid for the given duration.
// Expired tokens of the same user are pruned on the way in, so abandoned
// desk sessions don't accumulate rows.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	prune := `DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < now()`
	if _, err := r.db.ExecContext(ctx, prune, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	insert :=
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
         VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, insert, userID, token, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find resolves a presented token to its owner and expiry. Unknown tokens
// map to common.ErrorNotFound; the expiry check is the caller's concern.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query :=
		`SELECT user_id, expires_at
		 FROM refresh_tokens
		 WHERE token = $1`

	row := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&row.UserID, &row.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

// Delete revokes a token. Rotation and logout both come through here;
// deleting a token that is already gone is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
