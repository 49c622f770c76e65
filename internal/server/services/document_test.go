package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/notify"
	"github.com/dmitrijs2005/dockeeper/internal/server/config"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/timex"
)

func newDocService(t *testing.T, rm *fakeRepoManager) *DocumentService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	cfg := &config.Config{ActionTokenValidityDuration: 48 * time.Hour}
	tokens := NewTokenService(db, rm, cfg)
	audit := NewAuditService(db, rm)
	renderer := notify.NewRenderer("https://docs.example")
	return NewDocumentService(db, rm, tokens, audit, renderer)
}

func TestEnsureOwner_Upserts(t *testing.T) {
	rm := newFakeRepoManager()
	s := newDocService(t, rm)

	if err := s.EnsureOwner(context.Background(), "owner-1", "anna@example.com", "Anna"); err != nil {
		t.Fatalf("EnsureOwner error: %v", err)
	}
	if len(rm.owners.upserted) != 1 {
		t.Fatalf("upserted = %d", len(rm.owners.upserted))
	}
	o := rm.owners.upserted[0]
	if o.ID != "owner-1" || o.Email != "anna@example.com" || o.Name != "Anna" {
		t.Fatalf("owner = %+v", o)
	}
}

func TestCreateDocument_Success(t *testing.T) {
	rm := newFakeRepoManager()
	rm.subjects.getOut = &models.Subject{ID: "subj-1", OwnerID: "owner-1", Name: "Truck"}
	s := newDocService(t, rm)

	expiry := timex.StartOfDay(time.Now()).AddDate(1, 0, 0)
	doc, err := s.CreateDocument(context.Background(), "owner-1", "subj-1", "type-insurance", expiry)
	if err != nil {
		t.Fatalf("CreateDocument error: %v", err)
	}
	if doc.ID == "" || doc.Status != models.DocumentStatusActive {
		t.Fatalf("doc = %+v", doc)
	}
	if len(rm.documents.created) != 1 {
		t.Fatalf("created = %d", len(rm.documents.created))
	}
	if len(rm.audit.events) != 1 || rm.audit.events[0].Action != "CREATED" {
		t.Fatalf("audit = %+v", rm.audit.events)
	}
	if rm.audit.events[0].ActorID == nil || *rm.audit.events[0].ActorID != "owner-1" {
		t.Fatal("audit event must name the acting owner")
	}
}

func TestCreateDocument_ForeignSubjectReadsAsNotFound(t *testing.T) {
	rm := newFakeRepoManager()
	rm.subjects.getOut = &models.Subject{ID: "subj-1", OwnerID: "someone-else"}
	s := newDocService(t, rm)

	_, err := s.CreateDocument(context.Background(), "owner-1", "subj-1", "type-insurance", time.Now().AddDate(1, 0, 0))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("error = %v, want ErrorNotFound", err)
	}
	if len(rm.documents.created) != 0 {
		t.Fatal("no document may be created for a foreign subject")
	}
}

func TestGetDocument_ForeignReadsAsNotFound(t *testing.T) {
	rm := newFakeRepoManager()
	rm.documents.getOut = &models.Document{ID: "doc-1", OwnerID: "someone-else"}
	s := newDocService(t, rm)

	_, err := s.GetDocument(context.Background(), "owner-1", "doc-1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("error = %v, want ErrorNotFound", err)
	}
}

func TestGetPreference_FallsBackToDefaults(t *testing.T) {
	rm := newFakeRepoManager()
	rm.preferences.getErr = common.ErrorNotFound
	s := newDocService(t, rm)

	pref, err := s.GetPreference(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("GetPreference error: %v", err)
	}
	if pref.AnticipationDays != models.DefaultAnticipationDays {
		t.Fatalf("AnticipationDays = %d", pref.AnticipationDays)
	}
	if pref.Frequency != models.FrequencyDaily {
		t.Fatalf("Frequency = %q", pref.Frequency)
	}
	if len(pref.Channels) != 1 || pref.Channels[0] != models.ChannelEmail {
		t.Fatalf("Channels = %v", pref.Channels)
	}
}

func TestPutPreference_Validation(t *testing.T) {
	url := "https://hooks.example/x"
	tests := []struct {
		name    string
		pref    *models.NotificationPreference
		wantErr bool
	}{
		{
			name: "valid email daily",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 30,
				Channels: []string{models.ChannelEmail}, Frequency: models.FrequencyDaily},
		},
		{
			name: "valid webhook with url",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 14,
				Channels: []string{models.ChannelWebhook}, Frequency: models.FrequencyImmediate, WebhookURL: &url},
		},
		{
			name: "zero anticipation days",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 0,
				Channels: []string{models.ChannelEmail}, Frequency: models.FrequencyDaily},
			wantErr: true,
		},
		{
			name: "no channels",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 30,
				Frequency: models.FrequencyDaily},
			wantErr: true,
		},
		{
			name: "unknown channel",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 30,
				Channels: []string{"PIGEON"}, Frequency: models.FrequencyDaily},
			wantErr: true,
		},
		{
			name: "webhook without url",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 30,
				Channels: []string{models.ChannelWebhook}, Frequency: models.FrequencyDaily},
			wantErr: true,
		},
		{
			name: "unknown frequency",
			pref: &models.NotificationPreference{OwnerID: "o", AnticipationDays: 30,
				Channels: []string{models.ChannelEmail}, Frequency: "HOURLY"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newFakeRepoManager()
			s := newDocService(t, rm)

			err := s.PutPreference(context.Background(), tt.pref)
			if tt.wantErr {
				if !errors.Is(err, common.ErrInvalidArgument) {
					t.Fatalf("error = %v, want ErrInvalidArgument", err)
				}
				if len(rm.preferences.upserted) != 0 {
					t.Fatal("invalid preference must not be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("PutPreference error: %v", err)
			}
			if len(rm.preferences.upserted) != 1 {
				t.Fatal("preference was not stored")
			}
		})
	}
}

func TestIssueDeactivateLink(t *testing.T) {
	rm := newFakeRepoManager()
	rm.documents.getOut = &models.Document{ID: "doc-1", OwnerID: "owner-1"}
	s := newDocService(t, rm)

	link, err := s.IssueDeactivateLink(context.Background(), "owner-1", "doc-1", time.Now())
	if err != nil {
		t.Fatalf("IssueDeactivateLink error: %v", err)
	}
	if !strings.HasPrefix(link, "https://docs.example/renew?token=") {
		t.Fatalf("link = %q", link)
	}
	if len(rm.tokens.created) != 1 || rm.tokens.created[0].Action != models.ActionDeactivate {
		t.Fatalf("tokens = %+v", rm.tokens.created)
	}
}

func TestInspectToken_ReturnsPublicFieldsOnly(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash:  HashToken(raw),
		DocumentID: "doc-1",
		Action:     models.ActionUpdateDate,
		ExpiresAt:  now.Add(time.Hour),
	}
	rm.documents.ctxOut = &models.DocumentContext{
		Document:    models.Document{ID: "doc-1", ExpiryDate: timex.StartOfDay(now).AddDate(0, 0, 5)},
		OwnerEmail:  "anna@example.com",
		SubjectName: "Truck KA-1234",
		TypeName:    "insurance",
	}
	s := newDocService(t, rm)

	info, err := s.InspectToken(context.Background(), raw, now)
	if err != nil {
		t.Fatalf("InspectToken error: %v", err)
	}
	if info.DocumentID != "doc-1" || info.Action != models.ActionUpdateDate {
		t.Fatalf("info = %+v", info)
	}
	if info.SubjectName != "Truck KA-1234" || info.TypeName != "insurance" {
		t.Fatalf("info = %+v", info)
	}
}

func TestInspectToken_LifecycleErrorsPassThrough(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Hour)

	tests := []struct {
		name    string
		findOut *models.ActionToken
		findErr error
		wantErr error
	}{
		{name: "unknown", findErr: common.ErrorNotFound, wantErr: common.ErrTokenNotFound},
		{name: "used", findOut: &models.ActionToken{UsedAt: &used, ExpiresAt: now.Add(time.Hour)}, wantErr: common.ErrTokenUsed},
		{name: "expired", findOut: &models.ActionToken{ExpiresAt: now.Add(-time.Hour)}, wantErr: common.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newFakeRepoManager()
			rm.tokens.findOut = tt.findOut
			rm.tokens.findErr = tt.findErr
			s := newDocService(t, rm)

			_, err := s.InspectToken(context.Background(), "deadbeef", now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyTokenAction_RenewSuccess(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash:  HashToken(raw),
		DocumentID: "doc-1",
		Action:     models.ActionUpdateDate,
		ExpiresAt:  now.Add(time.Hour),
	}
	oldExpiry := timex.StartOfDay(now).AddDate(0, 0, 7)
	rm.documents.getOut = &models.Document{
		ID:         "doc-1",
		OwnerID:    "owner-1",
		ExpiryDate: oldExpiry,
		Status:     models.DocumentStatusActive,
	}

	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	cfg := &config.Config{ActionTokenValidityDuration: time.Hour}
	tokens := NewTokenService(db, rm, cfg)
	audit := NewAuditService(db, rm)
	s := NewDocumentService(db, rm, tokens, audit, notify.NewRenderer("https://docs.example"))

	newExpiry := timex.StartOfDay(now).AddDate(0, 6, 0)
	res, err := s.ApplyTokenAction(context.Background(), raw, models.ActionUpdateDate, &newExpiry, now)
	if err != nil {
		t.Fatalf("ApplyTokenAction error: %v", err)
	}
	if !res.PreviousExpiry.Equal(oldExpiry) || !res.NewExpiry.Equal(newExpiry) {
		t.Fatalf("result = %+v", res)
	}
	if res.Document.Status != models.DocumentStatusActive || res.Document.DeactivatedAt != nil {
		t.Fatalf("document = %+v", res.Document)
	}

	if len(rm.documents.renewed) != 1 {
		t.Fatalf("renewed = %+v", rm.documents.renewed)
	}
	if rm.documents.renewed[0].id != "doc-1" || !rm.documents.renewed[0].expiry.Equal(newExpiry) {
		t.Fatalf("renew call = %+v", rm.documents.renewed[0])
	}
	if len(rm.tokens.consumed) != 1 {
		t.Fatalf("consumed = %v", rm.tokens.consumed)
	}
	if len(rm.audit.events) != 1 || rm.audit.events[0].Action != "RENEWED" {
		t.Fatalf("audit = %+v", rm.audit.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
}

func TestApplyTokenAction_DateNotInFuture(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash:  HashToken(raw),
		DocumentID: "doc-1",
		Action:     models.ActionUpdateDate,
		ExpiresAt:  now.Add(time.Hour),
	}
	rm.documents.getOut = &models.Document{ID: "doc-1", OwnerID: "owner-1"}
	s := newDocService(t, rm)

	for _, daysAhead := range []int{0, -1, -30} {
		bad := timex.StartOfDay(now).AddDate(0, 0, daysAhead)
		_, err := s.ApplyTokenAction(context.Background(), raw, models.ActionUpdateDate, &bad, now)
		if !errors.Is(err, common.ErrDateNotInFuture) {
			t.Fatalf("daysAhead=%d: error = %v, want ErrDateNotInFuture", daysAhead, err)
		}
	}
	if len(rm.tokens.consumed) != 0 {
		t.Fatal("token must survive a rejected date")
	}
}

func TestApplyTokenAction_MissingDate(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash:  HashToken(raw),
		DocumentID: "doc-1",
		Action:     models.ActionUpdateDate,
		ExpiresAt:  now.Add(time.Hour),
	}
	rm.documents.getOut = &models.Document{ID: "doc-1", OwnerID: "owner-1"}
	s := newDocService(t, rm)

	_, err := s.ApplyTokenAction(context.Background(), raw, models.ActionUpdateDate, nil, now)
	if !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestApplyTokenAction_ActionMismatch(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash:  HashToken(raw),
		DocumentID: "doc-1",
		Action:     models.ActionUpdateDate,
		ExpiresAt:  now.Add(time.Hour),
	}
	s := newDocService(t, rm)

	_, err := s.ApplyTokenAction(context.Background(), raw, models.ActionDeactivate, nil, now)
	if !errors.Is(err, common.ErrActionMismatch) {
		t.Fatalf("error = %v, want ErrActionMismatch", err)
	}
	if len(rm.tokens.consumed) != 0 {
		t.Fatal("mismatched action must not consume the token")
	}
}

func TestApplyTokenAction_DeactivateSuccess(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash:  HashToken(raw),
		DocumentID: "doc-1",
		Action:     models.ActionDeactivate,
		ExpiresAt:  now.Add(time.Hour),
	}
	rm.documents.getOut = &models.Document{
		ID:         "doc-1",
		OwnerID:    "owner-1",
		ExpiryDate: timex.StartOfDay(now).AddDate(0, 0, 7),
		Status:     models.DocumentStatusActive,
	}

	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	cfg := &config.Config{ActionTokenValidityDuration: time.Hour}
	tokens := NewTokenService(db, rm, cfg)
	audit := NewAuditService(db, rm)
	s := NewDocumentService(db, rm, tokens, audit, notify.NewRenderer("https://docs.example"))

	res, err := s.ApplyTokenAction(context.Background(), raw, models.ActionDeactivate, nil, now)
	if err != nil {
		t.Fatalf("ApplyTokenAction error: %v", err)
	}
	if res.Document.Status != models.DocumentStatusDeactivated || res.Document.DeactivatedAt == nil {
		t.Fatalf("document = %+v", res.Document)
	}
	if len(rm.documents.deactivated) != 1 || rm.documents.deactivated[0] != "doc-1" {
		t.Fatalf("deactivated = %v", rm.documents.deactivated)
	}
	if len(rm.audit.events) != 1 || rm.audit.events[0].Action != "DEACTIVATED" {
		t.Fatalf("audit = %+v", rm.audit.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
}

func TestApplyTokenAction_UsedTokenPassesThrough(t *testing.T) {
	now := time.Now()
	raw := "deadbeef"
	used := now.Add(-time.Hour)

	rm := newFakeRepoManager()
	rm.tokens.findOut = &models.ActionToken{
		TokenHash: HashToken(raw),
		Action:    models.ActionUpdateDate,
		UsedAt:    &used,
		ExpiresAt: now.Add(time.Hour),
	}
	s := newDocService(t, rm)

	expiry := timex.StartOfDay(now).AddDate(0, 1, 0)
	_, err := s.ApplyTokenAction(context.Background(), raw, models.ActionUpdateDate, &expiry, now)
	if !errors.Is(err, common.ErrTokenUsed) {
		t.Fatalf("error = %v, want ErrTokenUsed", err)
	}
}
