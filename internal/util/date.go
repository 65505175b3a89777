package util

import "time"

// NormalizeDate truncates a timestamp to midnight UTC. All occurrence and
// exclusion dates are compared at day granularity, so every date entering the
// projection goes through this first.
func NormalizeDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same UTC calendar day.
func SameDate(a, b time.Time) bool {
	return NormalizeDate(a).Equal(NormalizeDate(b))
}

// ClampedDate returns the date for a target day in a given month, handling
// months with fewer days (day 31 in February returns Feb 28/29)
func ClampedDate(year int, month time.Month, targetDay int) time.Time {
	// Clamp invalid days to 1 (defensive)
	actualDay := targetDay
	if actualDay < 1 {
		actualDay = 1
	}

	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}
