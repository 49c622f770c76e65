package timex

import "time"

// StartOfDay returns midnight of the calendar day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the number of calendar days from now's civil date to
// target's civil date; it is zero on the day target falls on and negative once
// target is in the past. Both sides are rendered at midnight UTC before
// subtracting, so the server's local zone never skews the count against the
// midnight-UTC expiry dates scanned from the database.
func DaysUntil(now, target time.Time) int {
	return int(civilUTC(target).Sub(civilUTC(now)) / (24 * time.Hour))
}

func civilUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
