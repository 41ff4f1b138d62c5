package util

import "time"

// DateLayout is the wire and storage layout of calendar dates
const DateLayout = "2006-01-02"

// Date returns the calendar date year-month-day as a UTC midnight time.
// Out-of-range values are normalized the way time.Date does.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateToDate drops the clock component of t, keeping its calendar date
func TruncateToDate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate formats t as "YYYY-MM-DD"
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays adds n days to date
func AddDays(date time.Time, n int) time.Time {
	return TruncateToDate(date).AddDate(0, 0, n)
}

// AddWeeks adds n weeks to date
func AddWeeks(date time.Time, n int) time.Time {
	return AddDays(date, 7*n)
}

// AddYears adds n years to date. Feb 29 rolls over to Mar 1 in non-leap years.
func AddYears(date time.Time, n int) time.Time {
	return TruncateToDate(date).AddDate(n, 0, 0)
}

// AddMonthsClamped adds n months to date, clamping the day to the last day of
// the resulting month (Jan 31 + 1 month = Feb 28/29)
func AddMonthsClamped(date time.Time, n int) time.Time {
	first := Date(date.Year(), date.Month()+time.Month(n), 1)
	return CalculateActualDate(first.Year(), first.Month(), date.Day())
}

// DaysBetween returns the number of whole days from a to b (b - a)
func DaysBetween(a, b time.Time) int {
	return int(TruncateToDate(b).Sub(TruncateToDate(a)).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstDayOfMonth returns the first day of the given month
func FirstDayOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

// LastDayOfMonth returns the last day of the given month
func LastDayOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, DaysInMonth(year, month))
}

// MaxDate returns the later of a and b
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
