package models

import "time"

// Token actions. A token authorizes exactly the action it was minted for.
const (
	ActionUpdateDate = "UPDATE_DATE"
	ActionDeactivate = "DEACTIVATE"
)

// ActionToken is a single-use, time-boxed credential bound to one document
// and one action. Only the sha256 of the raw token is stored; UsedAt flips
// from nil to a timestamp exactly once and never back.
type ActionToken struct {
	ID         string
	TokenHash  string
	DocumentID string
	Action     string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}
