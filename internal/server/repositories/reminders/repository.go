// Package reminders declares the repository contract for reminder rows, which
// double as the per-day idempotency gate for the scan run.
package reminders

import (
	"context"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository defines append-only persistence for reminder send attempts.
type Repository interface {
	// RecordSent inserts a SENT reminder row. The insert itself is the
	// idempotency gate: if a SENT row already exists for this document today,
	// the partial unique index rejects it and common.ErrAlreadySentToday is
	// returned.
	RecordSent(ctx context.Context, rem *models.Reminder) error

	// RecordFailed inserts a FAILED reminder row. Failed attempts do not
	// occupy the gate, so a later run can retry.
	RecordFailed(ctx context.Context, rem *models.Reminder) error

	// SentToday reports whether a SENT reminder already exists for the
	// document on the current calendar day. This is a cheap pre-check; the
	// authoritative gate is RecordSent's unique index.
	SentToday(ctx context.Context, documentID string) (bool, error)

	// ListByDocument returns the document's reminder history, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]*models.Reminder, error)
}
