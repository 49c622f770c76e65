package models

import "time"

// AuditEvent is an immutable record of a state-changing action. The audit log
// is the system of record for "what happened and why"; it is never read back
// for decisioning.
type AuditEvent struct {
	ID          string
	EntityType  string
	EntityID    string
	Action      string
	Description string
	Metadata    map[string]any
	// ActorID is the owner who caused the action, when one is known. Batch
	// actions (the scan run) have no actor.
	ActorID   *string
	CreatedAt time.Time
}
