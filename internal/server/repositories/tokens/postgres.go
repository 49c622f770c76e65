package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// PostgresRepository implements action token storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.ActionToken) error {
	query := `
		INSERT INTO action_tokens (id, token_hash, document_id, action, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.TokenHash, token.DocumentID, token.Action, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, tokenHash string) (*models.ActionToken, error) {
	query := `
		SELECT id, token_hash, document_id, action, expires_at, used_at, created_at
		FROM action_tokens
		WHERE token_hash = $1
	`
	token := &models.ActionToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID, &token.TokenHash, &token.DocumentID, &token.Action,
		&token.ExpiresAt, &token.UsedAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// ConsumeByHash is the single security-critical write in the system: the
// conditional update must affect exactly one row, otherwise the token was
// already spent by a concurrent request.
func (r *PostgresRepository) ConsumeByHash(ctx context.Context, tokenHash string, usedAt time.Time) error {
	query := `
		UPDATE action_tokens
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, tokenHash, usedAt)
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
		return common.ErrTokenUsed
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
