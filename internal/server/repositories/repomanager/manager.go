package repomanager

import (
	"context"
	"database/sql"

	"github.com/mpodriezov/boardpack/internal/dbx"
	"github.com/mpodriezov/boardpack/internal/server/repositories/applications"
	"github.com/mpodriezov/boardpack/internal/server/repositories/documents"
	"github.com/mpodriezov/boardpack/internal/server/repositories/messages"
	"github.com/mpodriezov/boardpack/internal/server/repositories/refreshtokens"
	"github.com/mpodriezov/boardpack/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Applications(db dbx.DBTX) applications.Repository
	Documents(db dbx.DBTX) documents.Repository
	Messages(db dbx.DBTX) messages.Repository
}
