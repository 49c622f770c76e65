// Package subjects declares the repository contract for document subjects.
package subjects

import (
	"context"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository defines persistence for subjects.
type Repository interface {
	// Create inserts a new subject row.
	Create(ctx context.Context, subject *models.Subject) error

	// GetByID returns the subject or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Subject, error)

	// ListByOwner returns the owner's subjects by name.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Subject, error)
}
