package layout

import "time"

const (
	// DaysPerWeek is the number of day columns in a week-row.
	DaysPerWeek = 7
	// MaxRows is the largest number of week-rows a month grid can have.
	MaxRows = 6

	secondsPerDay = 24 * 60 * 60
)

// dayNumber returns the civil day of t in loc as a day count since the Unix
// epoch. Civil dates are used so DST transitions never shift a row boundary.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// DaysBetween returns the number of whole calendar days from from to t,
// evaluated in from's location. Any time-of-day component is floored away, so
// 23:59 on the day before from yields -1.
func DaysBetween(t, from time.Time) int {
	loc := from.Location()
	return dayNumber(t, loc) - dayNumber(from, loc)
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// midnight truncates t to the start of its calendar day in its own location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GridStart returns the first day shown in a month grid: the weekStart
// weekday on or before the first of month's month, at midnight in month's
// location.
func GridStart(month time.Time, weekStart time.Weekday) time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	return first.AddDate(0, 0, -leadingDays(first, weekStart))
}

// RequiredRows returns how many week-rows are needed to show every day of
// month's month when rows begin on weekStart.
func RequiredRows(month time.Time, weekStart time.Weekday) int {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	days := first.AddDate(0, 1, -1).Day()
	return (leadingDays(first, weekStart) + days + DaysPerWeek - 1) / DaysPerWeek
}

// leadingDays counts the days of the previous month shown before first.
func leadingDays(first time.Time, weekStart time.Weekday) int {
	return (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
}
