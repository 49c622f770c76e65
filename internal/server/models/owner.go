package models

import "time"

// Owner mirrors the external auth principal locally so the reminder engine
// can address notifications without calling out to the auth system. Rows are
// upserted from verified JWT claims on authenticated requests.
type Owner struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}
