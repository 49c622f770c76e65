// Package services contains server-side business logic: document and subject
// management, the daily reminder scan, notification dispatch, the single-use
// action token lifecycle, and attachment presigning.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AuditService appends immutable audit events. It accepts a dbx.DBTX so a
// record can join the transaction of the action it describes.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *sql.DB, m repomanager.RepositoryManager) *AuditService {
	return &AuditService{db: db, repomanager: m}
}

// Record fills in the event's ID and timestamp and appends it.
func (s *AuditService) Record(ctx context.Context, db dbx.DBTX, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := s.repomanager.Audit(db).Append(ctx, event); err != nil {
		return fmt.Errorf("error appending audit event: %w", err)
	}
	return nil
}
