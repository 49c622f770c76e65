package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// PostgresRepository implements document storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, owner_id, subject_id, document_type_id, expiry_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.OwnerID, doc.SubjectID, doc.DocumentTypeID, doc.ExpiryDate, doc.Status); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `
		SELECT id, owner_id, subject_id, document_type_id, expiry_date, status,
		       deactivated_at, attachment_key, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	doc := &models.Document{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.OwnerID, &doc.SubjectID, &doc.DocumentTypeID, &doc.ExpiryDate,
		&doc.Status, &doc.DeactivatedAt, &doc.AttachmentKey, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// scanContext is the join used both for single-document context lookups and
// for the scan run's candidate query.
const scanContextQuery = `
	SELECT d.id, d.owner_id, d.subject_id, d.document_type_id, d.expiry_date,
	       d.status, d.deactivated_at, d.attachment_key, d.created_at, d.updated_at,
	       o.email, o.name, s.name, t.name,
	       p.owner_id, p.anticipation_days, array_to_string(p.channels, ','), p.frequency, p.webhook_url
	FROM documents d
	JOIN owners o ON o.id = d.owner_id
	JOIN subjects s ON s.id = d.subject_id
	JOIN document_types t ON t.id = d.document_type_id
	LEFT JOIN notification_preferences p ON p.owner_id = d.owner_id
`

func scanContextRow(scan func(dest ...any) error) (*models.DocumentContext, error) {
	dc := &models.DocumentContext{}
	var prefOwner, prefChannels, prefFrequency, prefWebhook sql.NullString
	var prefDays sql.NullInt64
	if err := scan(
		&dc.ID, &dc.OwnerID, &dc.SubjectID, &dc.DocumentTypeID, &dc.ExpiryDate,
		&dc.Status, &dc.DeactivatedAt, &dc.AttachmentKey, &dc.CreatedAt, &dc.UpdatedAt,
		&dc.OwnerEmail, &dc.OwnerName, &dc.SubjectName, &dc.TypeName,
		&prefOwner, &prefDays, &prefChannels, &prefFrequency, &prefWebhook,
	); err != nil {
		return nil, err
	}
	if prefOwner.Valid {
		pref := &models.NotificationPreference{
			OwnerID:          prefOwner.String,
			AnticipationDays: int(prefDays.Int64),
			Channels:         strings.Split(prefChannels.String, ","),
			Frequency:        prefFrequency.String,
		}
		if prefWebhook.Valid {
			u := prefWebhook.String
			pref.WebhookURL = &u
		}
		dc.Preference = pref
	}
	return dc, nil
}

func (r *PostgresRepository) GetContext(ctx context.Context, id string) (*models.DocumentContext, error) {
	query := scanContextQuery + ` WHERE d.id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	dc, err := scanContextRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return dc, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	query := `
		SELECT id, owner_id, subject_id, document_type_id, expiry_date, status,
		       deactivated_at, attachment_key, created_at, updated_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.OwnerID, &doc.SubjectID, &doc.DocumentTypeID, &doc.ExpiryDate,
			&doc.Status, &doc.DeactivatedAt, &doc.AttachmentKey, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SelectActiveForScan(ctx context.Context) ([]*models.DocumentContext, error) {
	query := scanContextQuery + ` WHERE d.status = 'ACTIVE' ORDER BY d.expiry_date`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select scan candidates: %w", err)
	}
	defer rows.Close()

	var result []*models.DocumentContext
	for rows.Next() {
		dc, err := scanContextRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Renew(ctx context.Context, id string, newExpiry time.Time) error {
	query := `
		UPDATE documents
		SET expiry_date = $2, status = 'ACTIVE', deactivated_at = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectOne(ctx, query, id, newExpiry)
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE documents
		SET status = 'DEACTIVATED', deactivated_at = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectOne(ctx, query, id, at)
}

func (r *PostgresRepository) SetAttachmentKey(ctx context.Context, id, key string) error {
	query := `
		UPDATE documents
		SET attachment_key = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectOne(ctx, query, id, key)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `
		DELETE FROM documents
		WHERE id = $1 AND owner_id = $2
	`
	return r.execExpectOne(ctx, query, id, ownerID)
}

func (r *PostgresRepository) execExpectOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
