package common

import "time"

// Middle returns the middle element of items, favouring the earlier one for
// even lengths. ok is false for an empty slice.
func Middle[T any](items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[(len(items)-1)/2], true
}

// UTCDay truncates t to midnight of its UTC calendar day.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
