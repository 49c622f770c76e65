package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/logging"
	"github.com/dmitrijs2005/dockeeper/internal/notify"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DispatchOutcome reports what happened when a due document was dispatched.
type DispatchOutcome struct {
	Notified bool
	Channels []string
}

// Dispatcher delivers reminders for due documents across the owner's
// configured channels and records the outcome of every attempt.
type Dispatcher struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	registry    *notify.Registry
	renderer    *notify.Renderer
	tokens      *TokenService
	audit       *AuditService
	logger      logging.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(db *sql.DB, m repomanager.RepositoryManager, registry *notify.Registry,
	renderer *notify.Renderer, tokens *TokenService, audit *AuditService, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		db:          db,
		repomanager: m,
		registry:    registry,
		renderer:    renderer,
		tokens:      tokens,
		audit:       audit,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Dispatch issues a fresh renewal token, sends the reminder over every
// enabled channel, and records one SENT row if at least one channel
// succeeded. The SENT insert is the authoritative daily gate: on a concurrent
// duplicate it fails with common.ErrAlreadySentToday, which the caller maps
// to a skip. Per-channel failures are recorded FAILED and never block the
// remaining channels.
func (d *Dispatcher) Dispatch(ctx context.Context, doc *models.DocumentContext, daysRemaining int, now time.Time) (*DispatchOutcome, error) {
	pref := doc.Preference
	if pref == nil {
		pref = models.DefaultPreference(doc.OwnerID)
	}

	raw, err := d.tokens.Issue(ctx, d.db, doc.ID, models.ActionUpdateDate, now)
	if err != nil {
		return nil, err
	}

	in := &notify.RenderInput{Doc: doc, DaysRemaining: daysRemaining, RawToken: raw}

	var sent []string
	for _, channel := range pref.Channels {
		msg, err := d.buildMessage(channel, pref, in)
		if err == nil {
			err = d.registry.Send(ctx, msg)
		}
		if err != nil {
			d.logger.Warn(ctx, "channel delivery failed",
				"document", doc.ID, "channel", channel, "error", err)
			d.recordFailed(ctx, doc.ID, channel, pref, daysRemaining, now, err)
			continue
		}
		sent = append(sent, channel)
	}

	if len(sent) == 0 {
		return &DispatchOutcome{}, nil
	}

	rem := &models.Reminder{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Channel:    sent[0],
		Status:     models.ReminderStatusSent,
		SentAt:     now,
		Message:    fmt.Sprintf("reminder sent, %d day(s) remaining", daysRemaining),
		Metadata:   map[string]any{"days_remaining": daysRemaining, "channels": sent},
	}
	if err := d.repomanager.Reminders(d.db).RecordSent(ctx, rem); err != nil {
		return nil, err
	}

	event := &models.AuditEvent{
		EntityType:  "reminder",
		EntityID:    rem.ID,
		Action:      "REMINDER_SENT",
		Description: fmt.Sprintf("reminder for document %s, %d day(s) remaining", doc.ID, daysRemaining),
		Metadata: map[string]any{
			"document_id":       doc.ID,
			"channels":          sent,
			"days_remaining":    daysRemaining,
			"anticipation_days": pref.AnticipationDays,
			"frequency":         pref.Frequency,
		},
	}
	if err := d.audit.Record(ctx, d.db, event); err != nil {
		d.logger.Error(ctx, "error recording audit event", "document", doc.ID, "error", err)
	}

	return &DispatchOutcome{Notified: true, Channels: sent}, nil
}

func (d *Dispatcher) buildMessage(channel string, pref *models.NotificationPreference, in *notify.RenderInput) (*notify.Message, error) {
	switch channel {
	case models.ChannelEmail:
		subject, body, err := d.renderer.Email(in)
		if err != nil {
			return nil, err
		}
		return &notify.Message{Channel: channel, To: in.Doc.OwnerEmail, Subject: subject, Body: body}, nil
	case models.ChannelWebhook:
		if pref.WebhookURL == nil || *pref.WebhookURL == "" {
			return nil, errors.New("webhook channel enabled without a URL")
		}
		return &notify.Message{Channel: channel, To: *pref.WebhookURL, Fields: d.renderer.WebhookFields(in)}, nil
	default:
		// The registry rejects channels nothing is registered for.
		return &notify.Message{Channel: channel}, nil
	}
}

func (d *Dispatcher) recordFailed(ctx context.Context, documentID, channel string, pref *models.NotificationPreference, daysRemaining int, now time.Time, cause error) {
	rem := &models.Reminder{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Channel:    channel,
		Status:     models.ReminderStatusFailed,
		SentAt:     now,
		Message:    cause.Error(),
		Metadata:   map[string]any{"days_remaining": daysRemaining},
	}
	if err := d.repomanager.Reminders(d.db).RecordFailed(ctx, rem); err != nil {
		d.logger.Error(ctx, "error recording failed reminder",
			"document", documentID, "channel", channel, "error", err)
	}

	event := &models.AuditEvent{
		EntityType:  "reminder",
		EntityID:    rem.ID,
		Action:      "REMINDER_FAILED",
		Description: fmt.Sprintf("delivery failed for document %s over %s: %v", documentID, channel, cause),
		Metadata: map[string]any{
			"document_id":       documentID,
			"channel":           channel,
			"days_remaining":    daysRemaining,
			"anticipation_days": pref.AnticipationDays,
			"frequency":         pref.Frequency,
		},
	}
	if err := d.audit.Record(ctx, d.db, event); err != nil {
		d.logger.Error(ctx, "error recording audit event",
			"document", documentID, "channel", channel, "error", err)
	}
}
