// Package tokens declares the repository contract for single-use action
// tokens in persistent storage.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository defines operations for issuing, finding, and consuming action
// tokens. Only token hashes are ever persisted or looked up.
type Repository interface {
	// Create stores a new token row.
	Create(ctx context.Context, token *models.ActionToken) error

	// FindByHash looks up a token by the sha256 of its raw string.
	// Returns common.ErrorNotFound when absent.
	FindByHash(ctx context.Context, tokenHash string) (*models.ActionToken, error)

	// ConsumeByHash atomically sets used_at, conditioned on used_at still
	// being NULL. Exactly one concurrent caller can succeed; all others get
	// common.ErrTokenUsed. Callers must have established existence first.
	ConsumeByHash(ctx context.Context, tokenHash string, usedAt time.Time) error
}
