// Package models defines server-side data models persisted in the database.
package models

import "time"

// Document statuses.
const (
	DocumentStatusActive      = "ACTIVE"
	DocumentStatusDeactivated = "DEACTIVATED"
)

// Document is a tracked record with an expiry date. It belongs to an owner
// (the account that receives reminders) and a subject (who or what the
// document is about, e.g. an employee or a vehicle).
type Document struct {
	ID             string
	OwnerID        string
	SubjectID      string
	DocumentTypeID string
	ExpiryDate     time.Time
	Status         string
	DeactivatedAt  *time.Time
	// AttachmentKey is the object-storage key of the scanned document, if one
	// has been uploaded.
	AttachmentKey *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DocumentContext is a document joined with everything the reminder engine
// needs to evaluate and address it: owner contact data, subject and type
// names, and the owner's notification preference (nil when not configured).
type DocumentContext struct {
	Document
	OwnerEmail  string
	OwnerName   string
	SubjectName string
	TypeName    string
	Preference  *NotificationPreference
}

// Subject is who or what a document belongs to.
type Subject struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// DocumentType is a catalog entry such as "insurance" or "license".
type DocumentType struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
