package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/notify"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dockeeper/internal/timex"
	"github.com/google/uuid"
)

// TokenInfo is what the public action page may learn about a token before
// deciding to use it. It deliberately exposes no owner data.
type TokenInfo struct {
	DocumentID  string
	Action      string
	SubjectName string
	TypeName    string
	ExpiryDate  time.Time
	ExpiresAt   time.Time
}

// DocumentService implements owner-facing document, subject, and preference
// management plus the public token-driven renew/deactivate flow.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	audit       *AuditService
	renderer    *notify.Renderer
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService,
	audit *AuditService, renderer *notify.Renderer) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		audit:       audit,
		renderer:    renderer,
	}
}

// EnsureOwner upserts the owner row from verified access token claims, so
// the reminder engine always has current contact data.
func (s *DocumentService) EnsureOwner(ctx context.Context, id, email, name string) error {
	owner := &models.Owner{ID: id, Email: email, Name: name}
	if err := s.repomanager.Owners(s.db).Upsert(ctx, owner); err != nil {
		return fmt.Errorf("error upserting owner: %w", err)
	}
	return nil
}

// CreateSubject creates a subject belonging to the owner.
func (s *DocumentService) CreateSubject(ctx context.Context, ownerID, name string) (*models.Subject, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: subject name is required", common.ErrInvalidArgument)
	}
	subject := &models.Subject{ID: uuid.NewString(), OwnerID: ownerID, Name: name}
	if err := s.repomanager.Subjects(s.db).Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("error creating subject: %w", err)
	}
	return subject, nil
}

// ListSubjects returns the owner's subjects.
func (s *DocumentService) ListSubjects(ctx context.Context, ownerID string) ([]*models.Subject, error) {
	return s.repomanager.Subjects(s.db).ListByOwner(ctx, ownerID)
}

// CreateDocument registers a new tracked document. The subject must belong
// to the owner; a foreign subject reads as not found.
func (s *DocumentService) CreateDocument(ctx context.Context, ownerID, subjectID, documentTypeID string, expiryDate time.Time) (*models.Document, error) {
	subject, err := s.repomanager.Subjects(s.db).GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}

	doc := &models.Document{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		SubjectID:      subjectID,
		DocumentTypeID: documentTypeID,
		ExpiryDate:     expiryDate,
		Status:         models.DocumentStatusActive,
	}
	if err := s.repomanager.Documents(s.db).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("error creating document: %w", err)
	}

	event := &models.AuditEvent{
		EntityType:  "document",
		EntityID:    doc.ID,
		Action:      "CREATED",
		Description: fmt.Sprintf("document registered, expires %s", expiryDate.Format("2006-01-02")),
		Metadata:    map[string]any{"subject_id": subjectID, "document_type_id": documentTypeID},
		ActorID:     &ownerID,
	}
	if err := s.audit.Record(ctx, s.db, event); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument returns one of the owner's documents. Foreign documents read
// as not found rather than forbidden.
func (s *DocumentService) GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	doc, err := s.repomanager.Documents(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return doc, nil
}

// ListDocuments returns the owner's documents.
func (s *DocumentService) ListDocuments(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return s.repomanager.Documents(s.db).ListByOwner(ctx, ownerID)
}

// ListReminders returns the reminder history of one of the owner's documents.
func (s *DocumentService) ListReminders(ctx context.Context, ownerID, documentID string) ([]*models.Reminder, error) {
	if _, err := s.GetDocument(ctx, ownerID, documentID); err != nil {
		return nil, err
	}
	return s.repomanager.Reminders(s.db).ListByDocument(ctx, documentID)
}

// DeleteDocument removes one of the owner's documents.
func (s *DocumentService) DeleteDocument(ctx context.Context, ownerID, id string) error {
	if err := s.repomanager.Documents(s.db).Delete(ctx, id, ownerID); err != nil {
		return err
	}
	event := &models.AuditEvent{
		EntityType:  "document",
		EntityID:    id,
		Action:      "DELETED",
		Description: "document deleted by owner",
		ActorID:     &ownerID,
	}
	return s.audit.Record(ctx, s.db, event)
}

// GetPreference returns the owner's notification preference, falling back to
// the defaults when none is stored.
func (s *DocumentService) GetPreference(ctx context.Context, ownerID string) (*models.NotificationPreference, error) {
	pref, err := s.repomanager.Preferences(s.db).Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.DefaultPreference(ownerID), nil
		}
		return nil, err
	}
	return pref, nil
}

// PutPreference validates and stores the owner's notification preference.
func (s *DocumentService) PutPreference(ctx context.Context, pref *models.NotificationPreference) error {
	if pref.AnticipationDays < 1 {
		return fmt.Errorf("%w: anticipation days must be positive", common.ErrInvalidArgument)
	}
	if len(pref.Channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", common.ErrInvalidArgument)
	}
	for _, ch := range pref.Channels {
		switch ch {
		case models.ChannelEmail:
		case models.ChannelWebhook:
			if pref.WebhookURL == nil || *pref.WebhookURL == "" {
				return fmt.Errorf("%w: webhook channel requires a URL", common.ErrInvalidArgument)
			}
		default:
			return fmt.Errorf("%w: unknown channel %q", common.ErrInvalidArgument, ch)
		}
	}
	switch pref.Frequency {
	case models.FrequencyImmediate, models.FrequencyDaily, models.FrequencyWeekly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", common.ErrInvalidArgument, pref.Frequency)
	}

	if err := s.repomanager.Preferences(s.db).Upsert(ctx, pref); err != nil {
		return fmt.Errorf("error storing preference: %w", err)
	}
	return nil
}

// IssueDeactivateLink mints a single-use DEACTIVATE token for one of the
// owner's documents and returns the public action URL carrying it.
func (s *DocumentService) IssueDeactivateLink(ctx context.Context, ownerID, documentID string, now time.Time) (string, error) {
	if _, err := s.GetDocument(ctx, ownerID, documentID); err != nil {
		return "", err
	}
	raw, err := s.tokens.Issue(ctx, s.db, documentID, models.ActionDeactivate, now)
	if err != nil {
		return "", err
	}
	return s.renderer.ActionURL(raw), nil
}

// InspectToken resolves a raw action token for the public action page.
// Lifecycle errors pass through: ErrTokenNotFound, ErrTokenUsed,
// ErrTokenExpired, ErrInvalidToken.
func (s *DocumentService) InspectToken(ctx context.Context, raw string, now time.Time) (*TokenInfo, error) {
	token, err := s.tokens.Inspect(ctx, raw, now)
	if err != nil {
		return nil, err
	}
	doc, err := s.repomanager.Documents(s.db).GetContext(ctx, token.DocumentID)
	if err != nil {
		return nil, err
	}
	return &TokenInfo{
		DocumentID:  doc.ID,
		Action:      token.Action,
		SubjectName: doc.SubjectName,
		TypeName:    doc.TypeName,
		ExpiryDate:  doc.ExpiryDate,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// UpdateResult is returned to the public caller after a token action.
type UpdateResult struct {
	Document       *models.Document
	PreviousExpiry time.Time
	NewExpiry      time.Time
}

// ApplyTokenAction consumes a raw token and performs the requested action.
// The action binding is checked before anything else: a token minted for
// action A never executes action B. UPDATE_DATE renews the document to
// newExpiry, which must lie strictly in the future; DEACTIVATE stops
// tracking. Consumption and the document mutation commit or roll back
// together.
func (s *DocumentService) ApplyTokenAction(ctx context.Context, raw, action string, newExpiry *time.Time, now time.Time) (*UpdateResult, error) {
	token, err := s.tokens.Inspect(ctx, raw, now)
	if err != nil {
		return nil, err
	}
	if token.Action != action {
		return nil, common.ErrActionMismatch
	}

	doc, err := s.repomanager.Documents(s.db).GetByID(ctx, token.DocumentID)
	if err != nil {
		return nil, err
	}
	previous := doc.ExpiryDate

	switch action {
	case models.ActionUpdateDate:
		if newExpiry == nil {
			return nil, fmt.Errorf("%w: new expiry date is required", common.ErrInvalidArgument)
		}
		if timex.DaysUntil(now, *newExpiry) < 1 {
			return nil, common.ErrDateNotInFuture
		}
		err = s.tokens.Consume(ctx, raw, models.ActionUpdateDate, now,
			func(ctx context.Context, tx dbx.DBTX, token *models.ActionToken) error {
				if err := s.repomanager.Documents(tx).Renew(ctx, token.DocumentID, *newExpiry); err != nil {
					return err
				}
				event := &models.AuditEvent{
					EntityType:  "document",
					EntityID:    token.DocumentID,
					Action:      "RENEWED",
					Description: fmt.Sprintf("expiry updated to %s via action link", newExpiry.Format("2006-01-02")),
					Metadata:    map[string]any{"new_expiry_date": newExpiry.Format("2006-01-02"), "token_id": token.ID},
				}
				return s.audit.Record(ctx, tx, event)
			})
		if err != nil {
			return nil, err
		}
		doc.ExpiryDate = *newExpiry
		doc.Status = models.DocumentStatusActive
		doc.DeactivatedAt = nil
		return &UpdateResult{Document: doc, PreviousExpiry: previous, NewExpiry: *newExpiry}, nil

	case models.ActionDeactivate:
		err = s.tokens.Consume(ctx, raw, models.ActionDeactivate, now,
			func(ctx context.Context, tx dbx.DBTX, token *models.ActionToken) error {
				if err := s.repomanager.Documents(tx).Deactivate(ctx, token.DocumentID, now); err != nil {
					return err
				}
				event := &models.AuditEvent{
					EntityType:  "document",
					EntityID:    token.DocumentID,
					Action:      "DEACTIVATED",
					Description: "tracking stopped via action link",
					Metadata:    map[string]any{"token_id": token.ID},
				}
				return s.audit.Record(ctx, tx, event)
			})
		if err != nil {
			return nil, err
		}
		doc.Status = models.DocumentStatusDeactivated
		doc.DeactivatedAt = &now
		return &UpdateResult{Document: doc, PreviousExpiry: previous, NewExpiry: previous}, nil

	default:
		return nil, fmt.Errorf("%w: unknown action %q", common.ErrInvalidArgument, action)
	}
}
