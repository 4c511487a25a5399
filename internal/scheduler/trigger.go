package scheduler

import "time"

// nextDaily returns the next strictly-future UTC instant at hour:minute.
// A job installed at exactly hour:minute waits for tomorrow's occurrence
// rather than firing immediately; there is no catch-up for missed runs.
func nextDaily(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
