package models

import "time"

// Reminder statuses.
const (
	ReminderStatusSent   = "SENT"
	ReminderStatusFailed = "FAILED"
)

// Reminder is one send attempt for one document over one channel. Rows are
// append-only; a SENT row also acts as the per-day idempotency gate via a
// partial unique index on (document_id, sent_on).
type Reminder struct {
	ID         string
	DocumentID string
	Channel    string
	Status     string
	SentAt     time.Time
	Message    string
	Metadata   map[string]any
}
