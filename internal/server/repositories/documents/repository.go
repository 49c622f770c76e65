// Package documents declares the repository contract for tracked documents.
package documents

import (
	"context"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository defines persistence operations for documents.
type Repository interface {
	// Create inserts a new document row.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID returns one document or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// GetContext returns one document joined with owner, subject, type and
	// preference data, or common.ErrorNotFound.
	GetContext(ctx context.Context, id string) (*models.DocumentContext, error)

	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)

	// SelectActiveForScan returns every ACTIVE document joined with the data
	// the reminder engine needs: owner contact, subject/type names, and the
	// owner's notification preference when one exists.
	SelectActiveForScan(ctx context.Context) ([]*models.DocumentContext, error)

	// Renew sets a new expiry date, reactivates the document, and clears
	// deactivated_at. Returns common.ErrorNotFound when no row matches.
	Renew(ctx context.Context, id string, newExpiry time.Time) error

	// Deactivate marks the document DEACTIVATED at the given time.
	// Returns common.ErrorNotFound when no row matches.
	Deactivate(ctx context.Context, id string, at time.Time) error

	// SetAttachmentKey records the object-storage key of an uploaded scan.
	SetAttachmentKey(ctx context.Context, id, key string) error

	// Delete removes a document owned by ownerID.
	// Returns common.ErrorNotFound when no row matches.
	Delete(ctx context.Context, id, ownerID string) error
}
