package owners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// PostgresRepository implements owner storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, owner *models.Owner) error {
	query := `
		INSERT INTO owners (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name
	`
	if _, err := r.db.ExecContext(ctx, query, owner.ID, owner.Email, owner.Name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	query := `
		SELECT id, email, name, created_at
		FROM owners
		WHERE id = $1
	`
	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&owner.ID, &owner.Email, &owner.Name, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return owner, nil
}
