// Package ledger builds the forward-looking obligation ledger: declared
// bills, their projected next instances and recurring payments inferred
// from transaction history.
package ledger

import "time"

// NextOccurrence computes the next date a monthly obligation falls due, on
// or after reference. The recurrence day is clamped to each month's last
// valid day, so day 31 lands on Apr 30, and Feb 29 outside leap years on
// Feb 28. When the clamped candidate in the reference month is already past,
// the date rolls into the following month (December wraps to January).
func NextOccurrence(recurrenceDay int, reference time.Time) time.Time {
	ref := midnight(reference)

	candidate := time.Date(ref.Year(), ref.Month(), clampDay(recurrenceDay, ref.Year(), ref.Month()),
		0, 0, 0, 0, ref.Location())
	if !candidate.Before(ref) {
		return candidate
	}

	year, month := ref.Year(), ref.Month()+1
	if month > time.December {
		month = time.January
		year++
	}
	return time.Date(year, month, clampDay(recurrenceDay, year, month), 0, 0, 0, 0, ref.Location())
}

// clampDay limits day to the number of days in the given month. Days below 1
// clamp to 1 so an unset recurrence never produces a zero date.
func clampDay(day, year int, month time.Month) int {
	if day < 1 {
		return 1
	}
	if last := daysIn(year, month); day > last {
		return last
	}
	return day
}

// daysIn returns the number of days in a month; day 0 of the next month
// normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
