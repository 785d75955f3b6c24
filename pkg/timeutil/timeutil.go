// Package timeutil has the registry's calendar arithmetic. Year addition is
// leap-safe: Feb 29 plus one year is Feb 28, never Mar 1.
package timeutil

import "time"

var (
	// StartOfTime is the earliest representable registry instant.
	StartOfTime = time.Unix(0, 0).UTC()
	// EndOfTime is the "forever" sentinel used for open-ended recurrences and
	// for resources that are not deleted. It is the last microsecond that
	// both RFC 3339 JSON and postgres timestamps can carry.
	EndOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 999_999_000, time.UTC)
)

// IsEndOfTime reports whether t is the forever sentinel.
func IsEndOfTime(t time.Time) bool {
	return t.Equal(EndOfTime)
}

// AddYears adds whole years, clamping to the last day of the month when the
// target month is shorter.
func AddYears(t time.Time, years int) time.Time {
	if years == 0 {
		return t
	}
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	target := y + years
	if last := daysIn(m, target); d > last {
		d = last
	}
	return time.Date(target, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// SubtractYears is AddYears with a negative count.
func SubtractYears(t time.Time, years int) time.Time {
	return AddYears(t, -years)
}

// YearsBetween counts the whole years from start until end.
func YearsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	n := end.Year() - start.Year()
	for n > 0 && AddYears(start, n).After(end) {
		n--
	}
	return n
}

// EarliestOf returns the earlier of the given times.
func EarliestOf(first time.Time, rest ...time.Time) time.Time {
	out := first
	for _, t := range rest {
		if t.Before(out) {
			out = t
		}
	}
	return out
}

// LatestOf returns the later of the given times.
func LatestOf(first time.Time, rest ...time.Time) time.Time {
	out := first
	for _, t := range rest {
		if t.After(out) {
			out = t
		}
	}
	return out
}

// IsAtOrAfter is !t.Before(ref).
func IsAtOrAfter(t, ref time.Time) bool { return !t.Before(ref) }

// IsBeforeOrAt is !t.After(ref).
func IsBeforeOrAt(t, ref time.Time) bool { return !t.After(ref) }

// Days converts a day count to a duration.
func Days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
