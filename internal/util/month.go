package util

import (
	"fmt"
	"time"
)

// MonthKeyLayout is the layout of a month key ("2024-03")
const MonthKeyLayout = "2006-01"

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth returns the year and month for the following month
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// IsHistoricalMonth returns true if the given year/month is before the month of now
func IsHistoricalMonth(year, month int, now time.Time) bool {
	currentYear := now.Year()
	currentMonth := int(now.Month())

	if year < currentYear {
		return true
	}
	if year == currentYear && month < currentMonth {
		return true
	}
	return false
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	lastDay := DaysInMonth(year, month)

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}

// MonthKey formats the month of t as "YYYY-MM"
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// ParseMonthKey parses a "YYYY-MM" key and returns the first day of that month
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return FirstDayOfMonth(t.Year(), t.Month()), nil
}

// MonthsBefore returns the keys of the n calendar months preceding the month of t,
// most recent first
func MonthsBefore(t time.Time, n int) []string {
	keys := make([]string, 0, n)
	year, month := t.Year(), int(t.Month())
	for i := 0; i < n; i++ {
		year, month = PreviousMonth(year, month)
		keys = append(keys, fmt.Sprintf("%04d-%02d", year, month))
	}
	return keys
}
