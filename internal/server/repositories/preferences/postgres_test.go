package preferences

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	updated := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"owner_id", "anticipation_days", "channels", "frequency", "webhook_url", "updated_at"}).
		AddRow("owner1", 45, "EMAIL,WEBHOOK", models.FrequencyImmediate, "https://hooks.example/x", updated)

	mock.ExpectQuery(`SELECT owner_id, anticipation_days, .* FROM notification_preferences\s+WHERE owner_id = \$1`).
		WithArgs("owner1").
		WillReturnRows(rows)

	pref, err := repo.Get(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pref.AnticipationDays != 45 {
		t.Errorf("unexpected anticipation days: %d", pref.AnticipationDays)
	}
	if len(pref.Channels) != 2 || pref.Channels[1] != models.ChannelWebhook {
		t.Errorf("unexpected channels: %v", pref.Channels)
	}
	if pref.WebhookURL == nil || *pref.WebhookURL != "https://hooks.example/x" {
		t.Errorf("unexpected webhook url: %v", pref.WebhookURL)
	}
}

func TestGet_NullWebhook(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	updated := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"owner_id", "anticipation_days", "channels", "frequency", "webhook_url", "updated_at"}).
		AddRow("owner1", 30, "EMAIL", models.FrequencyDaily, nil, updated)

	mock.ExpectQuery(`SELECT owner_id, anticipation_days`).
		WithArgs("owner1").
		WillReturnRows(rows)

	pref, err := repo.Get(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pref.WebhookURL != nil {
		t.Errorf("expected nil webhook url, got %v", pref.WebhookURL)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT owner_id, anticipation_days`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestUpsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	url := "https://hooks.example/x"

	mock.ExpectExec(`INSERT INTO notification_preferences .*ON CONFLICT \(owner_id\)\s+DO UPDATE SET`).
		WithArgs("owner1", 45, "EMAIL,WEBHOOK", models.FrequencyImmediate, &url).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.NotificationPreference{
		OwnerID:          "owner1",
		AnticipationDays: 45,
		Channels:         []string{models.ChannelEmail, models.ChannelWebhook},
		Frequency:        models.FrequencyImmediate,
		WebhookURL:       &url,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notification_preferences`).
		WithArgs("owner1", 30, "EMAIL", models.FrequencyDaily, nil).
		WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), &models.NotificationPreference{
		OwnerID:          "owner1",
		AnticipationDays: 30,
		Channels:         []string{models.ChannelEmail},
		Frequency:        models.FrequencyDaily,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
