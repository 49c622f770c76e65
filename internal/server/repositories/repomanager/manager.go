package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/audit"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/owners"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/preferences"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/subjects"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/tokens"
)

// RepositoryManager is the factory services use to obtain repositories.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Owners(db dbx.DBTX) owners.Repository
	Subjects(db dbx.DBTX) subjects.Repository
	Documents(db dbx.DBTX) documents.Repository
	Preferences(db dbx.DBTX) preferences.Repository
	Reminders(db dbx.DBTX) reminders.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Audit(db dbx.DBTX) audit.Repository
}
