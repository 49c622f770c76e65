package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// PostgresRepository implements preference storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID string) (*models.NotificationPreference, error) {
	query := `
		SELECT owner_id, anticipation_days, array_to_string(channels, ','), frequency, webhook_url, updated_at
		FROM notification_preferences
		WHERE owner_id = $1
	`
	pref := &models.NotificationPreference{}
	var channels string
	var webhook sql.NullString
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&pref.OwnerID, &pref.AnticipationDays, &channels, &pref.Frequency, &webhook, &pref.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	pref.Channels = strings.Split(channels, ",")
	if webhook.Valid {
		u := webhook.String
		pref.WebhookURL = &u
	}
	return pref, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, pref *models.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (owner_id, anticipation_days, channels, frequency, webhook_url, updated_at)
		VALUES ($1, $2, string_to_array($3, ','), $4, $5, now())
		ON CONFLICT (owner_id)
		DO UPDATE SET
			anticipation_days = EXCLUDED.anticipation_days,
			channels = EXCLUDED.channels,
			frequency = EXCLUDED.frequency,
			webhook_url = EXCLUDED.webhook_url,
			updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query,
		pref.OwnerID, pref.AnticipationDays, strings.Join(pref.Channels, ","),
		pref.Frequency, pref.WebhookURL); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
