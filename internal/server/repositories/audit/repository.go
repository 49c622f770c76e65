// Package audit declares the append-only repository contract for the audit log.
package audit

import (
	"context"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

// Repository appends immutable audit events. There is deliberately no way to
// update or delete a row, and no query surface the engine could use for
// decisioning.
type Repository interface {
	Append(ctx context.Context, event *models.AuditEvent) error
}
