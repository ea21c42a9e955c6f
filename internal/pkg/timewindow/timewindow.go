// Package timewindow computes the UTC window boundaries spend rules and
// kill switches aggregate over. All boundaries are half-open on the start
// side: a transaction exactly at a boundary belongs to the new window.
package timewindow

import "time"

// StartOfDay returns 00:00:00 UTC on t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns 00:00:00 UTC on the most recent Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	// time.Sunday == 0; subtract that many days to reach Sunday.
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns 00:00:00 UTC on day 1 of t's calendar month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
