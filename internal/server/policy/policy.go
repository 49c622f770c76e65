// Package policy decides, with no I/O, whether a document is due for a
// reminder today. The decision is a pure function of the remaining-days count
// and the owner's preference, which makes it testable without any store.
package policy

import "github.com/dmitrijs2005/dockeeper/internal/server/models"

// graceDays is the post-expiry escalation window: reminders keep firing on
// the expiry day and for two days after it.
const graceDays = 3

// Decision is the outcome of evaluating one document on one day.
type Decision struct {
	Due           bool
	DaysRemaining int
}

// Offsets returns the set of daysRemaining values that trigger a reminder.
// The base set is {anticipationDays, 7, 3, 1}. For IMMEDIATE frequency, every
// multiple of 7 strictly between 7 and anticipationDays−7 is added, producing
// evenly spaced pre-critical pings across long anticipation windows.
func Offsets(anticipationDays int, frequency string) map[int]struct{} {
	offsets := map[int]struct{}{
		anticipationDays: {},
		7:                {},
		3:                {},
		1:                {},
	}
	if frequency == models.FrequencyImmediate {
		for o := 14; o < anticipationDays-7; o += 7 {
			offsets[o] = struct{}{}
		}
	}
	return offsets
}

// Evaluate reports whether a document with the given remaining days is due
// today under the owner's anticipation window and frequency. A document is
// due when daysRemaining hits a trigger offset, or within the grace window:
// on the expiry day and up to two days past it.
func Evaluate(daysRemaining, anticipationDays int, frequency string) Decision {
	if daysRemaining <= 0 && daysRemaining > -graceDays {
		return Decision{Due: true, DaysRemaining: daysRemaining}
	}
	_, due := Offsets(anticipationDays, frequency)[daysRemaining]
	return Decision{Due: due, DaysRemaining: daysRemaining}
}
