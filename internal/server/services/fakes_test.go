package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/logging"
	"github.com/dmitrijs2005/dockeeper/internal/notify"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	auditrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/audit"
	documentsrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/documents"
	ownersrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/owners"
	preferencesrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/preferences"
	remindersrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/reminders"
	subjectsrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/subjects"
	tokensrepo "github.com/dmitrijs2005/dockeeper/internal/server/repositories/tokens"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- fake repositories ---

type fakeOwnersRepo struct {
	mu       sync.Mutex
	upserted []*models.Owner

	upsertErr error
	getOut    *models.Owner
	getErr    error
}

func (f *fakeOwnersRepo) Upsert(ctx context.Context, o *models.Owner) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, o)
	return nil
}

func (f *fakeOwnersRepo) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeSubjectsRepo struct {
	mu      sync.Mutex
	created []*models.Subject

	createErr error
	getOut    *models.Subject
	getErr    error
	listOut   []*models.Subject
	listErr   error
}

func (f *fakeSubjectsRepo) Create(ctx context.Context, s *models.Subject) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, s)
	return nil
}

func (f *fakeSubjectsRepo) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeSubjectsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Subject, error) {
	return f.listOut, f.listErr
}

type renewCall struct {
	id     string
	expiry time.Time
}

type fakeDocumentsRepo struct {
	mu          sync.Mutex
	created     []*models.Document
	renewed     []renewCall
	deactivated []string
	deleted     []string
	keys        map[string]string

	createErr error
	getOut    *models.Document
	getErr    error
	ctxOut    *models.DocumentContext
	ctxErr    error
	listOut   []*models.Document
	listErr   error
	scanOut   []*models.DocumentContext
	scanErr   error
	scanCalls int
	renewErr  error
	deactErr  error
	setKeyErr error
	deleteErr error
}

func (f *fakeDocumentsRepo) Create(ctx context.Context, d *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDocumentsRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeDocumentsRepo) GetContext(ctx context.Context, id string) (*models.DocumentContext, error) {
	if f.ctxErr != nil {
		return nil, f.ctxErr
	}
	return f.ctxOut, nil
}

func (f *fakeDocumentsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return f.listOut, f.listErr
}

func (f *fakeDocumentsRepo) SelectActiveForScan(ctx context.Context) ([]*models.DocumentContext, error) {
	f.mu.Lock()
	f.scanCalls++
	f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.scanOut, nil
}

func (f *fakeDocumentsRepo) Renew(ctx context.Context, id string, newExpiry time.Time) error {
	if f.renewErr != nil {
		return f.renewErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewed = append(f.renewed, renewCall{id: id, expiry: newExpiry})
	return nil
}

func (f *fakeDocumentsRepo) Deactivate(ctx context.Context, id string, at time.Time) error {
	if f.deactErr != nil {
		return f.deactErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeDocumentsRepo) SetAttachmentKey(ctx context.Context, id, key string) error {
	if f.setKeyErr != nil {
		return f.setKeyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = make(map[string]string)
	}
	f.keys[id] = key
	return nil
}

func (f *fakeDocumentsRepo) Delete(ctx context.Context, id, ownerID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRemindersRepo struct {
	mu     sync.Mutex
	sent   []*models.Reminder
	failed []*models.Reminder

	sentErr        error
	failedErr      error
	sentToday      map[string]bool
	sentTodayErr   error
	sentTodayPanic map[string]bool
	listOut        []*models.Reminder
	listErr        error
}

func (f *fakeRemindersRepo) RecordSent(ctx context.Context, r *models.Reminder) error {
	if f.sentErr != nil {
		return f.sentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	return nil
}

func (f *fakeRemindersRepo) RecordFailed(ctx context.Context, r *models.Reminder) error {
	if f.failedErr != nil {
		return f.failedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, r)
	return nil
}

func (f *fakeRemindersRepo) SentToday(ctx context.Context, documentID string) (bool, error) {
	if f.sentTodayPanic[documentID] {
		panic("reminder store corrupted")
	}
	if f.sentTodayErr != nil {
		return false, f.sentTodayErr
	}
	return f.sentToday[documentID], nil
}

func (f *fakeRemindersRepo) ListByDocument(ctx context.Context, documentID string) ([]*models.Reminder, error) {
	return f.listOut, f.listErr
}

type fakeTokensRepo struct {
	mu       sync.Mutex
	created  []*models.ActionToken
	consumed []string

	createErr  error
	findOut    *models.ActionToken
	findErr    error
	consumeErr error
}

func (f *fakeTokensRepo) Create(ctx context.Context, t *models.ActionToken) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTokensRepo) FindByHash(ctx context.Context, tokenHash string) (*models.ActionToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeTokensRepo) ConsumeByHash(ctx context.Context, tokenHash string, usedAt time.Time) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumed = append(f.consumed, tokenHash)
	return nil
}

type fakePreferencesRepo struct {
	mu       sync.Mutex
	upserted []*models.NotificationPreference

	getOut    *models.NotificationPreference
	getErr    error
	upsertErr error
}

func (f *fakePreferencesRepo) Get(ctx context.Context, ownerID string) (*models.NotificationPreference, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakePreferencesRepo) Upsert(ctx context.Context, p *models.NotificationPreference) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, p)
	return nil
}

type fakeAuditRepo struct {
	mu     sync.Mutex
	events []*models.AuditEvent

	appendErr error
}

func (f *fakeAuditRepo) Append(ctx context.Context, e *models.AuditEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

// --- fake repository manager ---

type fakeRepoManager struct {
	owners      *fakeOwnersRepo
	subjects    *fakeSubjectsRepo
	documents   *fakeDocumentsRepo
	preferences *fakePreferencesRepo
	reminders   *fakeRemindersRepo
	tokens      *fakeTokensRepo
	audit       *fakeAuditRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		owners:      &fakeOwnersRepo{},
		subjects:    &fakeSubjectsRepo{},
		documents:   &fakeDocumentsRepo{},
		preferences: &fakePreferencesRepo{},
		reminders:   &fakeRemindersRepo{},
		tokens:      &fakeTokensRepo{},
		audit:       &fakeAuditRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Owners(db dbx.DBTX) ownersrepo.Repository           { return m.owners }
func (m *fakeRepoManager) Subjects(db dbx.DBTX) subjectsrepo.Repository       { return m.subjects }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documentsrepo.Repository     { return m.documents }
func (m *fakeRepoManager) Preferences(db dbx.DBTX) preferencesrepo.Repository { return m.preferences }
func (m *fakeRepoManager) Reminders(db dbx.DBTX) remindersrepo.Repository     { return m.reminders }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository           { return m.tokens }
func (m *fakeRepoManager) Audit(db dbx.DBTX) auditrepo.Repository             { return m.audit }

// --- fake channel sender ---

type fakeSender struct {
	mu   sync.Mutex
	sent []*notify.Message

	err error
}

func (f *fakeSender) Send(ctx context.Context, msg *notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}
