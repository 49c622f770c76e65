// Package owners declares the repository contract for the local mirror of
// externally authenticated owners.
package owners

import (
	"context"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository defines persistence for owner rows.
type Repository interface {
	// Upsert creates the owner or refreshes email/name from verified claims.
	Upsert(ctx context.Context, owner *models.Owner) error

	// GetByID returns the owner or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Owner, error)
}
