// Package preferences declares the repository contract for per-owner
// notification preferences.
package preferences

import (
	"context"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository defines persistence for notification preferences. An owner with
// no stored row falls back to models.DefaultPreference.
type Repository interface {
	// Get returns the owner's preference or common.ErrorNotFound.
	Get(ctx context.Context, ownerID string) (*models.NotificationPreference, error)

	// Upsert creates or replaces the owner's preference.
	Upsert(ctx context.Context, pref *models.NotificationPreference) error
}
