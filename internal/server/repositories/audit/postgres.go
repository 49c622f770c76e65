package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// PostgresRepository implements audit log appends over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, event *models.AuditEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		b, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("metadata marshal error: %w", err)
		}
		metadata = b
	}
	query := `
		INSERT INTO audit_log (id, entity_type, entity_id, action, description, metadata, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.EntityType, event.EntityID, event.Action,
		event.Description, metadata, event.ActorID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
