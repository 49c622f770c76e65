package reminders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// PostgresRepository implements reminder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) insert(ctx context.Context, rem *models.Reminder) error {
	var metadata []byte
	if rem.Metadata != nil {
		b, err := json.Marshal(rem.Metadata)
		if err != nil {
			return fmt.Errorf("metadata marshal error: %w", err)
		}
		metadata = b
	}
	query := `
		INSERT INTO reminders (id, document_id, channel, status, sent_at, sent_on, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $5::date, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		rem.ID, rem.DocumentID, rem.Channel, rem.Status, rem.SentAt, rem.Message, metadata); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadySentToday
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RecordSent inserts a SENT row; a unique violation on the daily gate index
// comes back as common.ErrAlreadySentToday.
func (r *PostgresRepository) RecordSent(ctx context.Context, rem *models.Reminder) error {
	rem.Status = models.ReminderStatusSent
	return r.insert(ctx, rem)
}

// RecordFailed inserts a FAILED row.
func (r *PostgresRepository) RecordFailed(ctx context.Context, rem *models.Reminder) error {
	rem.Status = models.ReminderStatusFailed
	return r.insert(ctx, rem)
}

func (r *PostgresRepository) SentToday(ctx context.Context, documentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE document_id = $1 AND status = 'SENT' AND sent_on = current_date
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, documentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListByDocument(ctx context.Context, documentID string) ([]*models.Reminder, error) {
	query := `
		SELECT id, document_id, channel, status, sent_at, message, metadata
		FROM reminders
		WHERE document_id = $1
		ORDER BY sent_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select reminders: %w", err)
	}
	defer rows.Close()

	var result []*models.Reminder
	for rows.Next() {
		var rem models.Reminder
		var metadata []byte
		if err := rows.Scan(&rem.ID, &rem.DocumentID, &rem.Channel, &rem.Status,
			&rem.SentAt, &rem.Message, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rem.Metadata); err != nil {
				return nil, fmt.Errorf("metadata unmarshal error: %w", err)
			}
		}
		result = append(result, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
