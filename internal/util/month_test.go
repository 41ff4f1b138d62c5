package util

import (
	"testing"
	"time"
)

func TestPreviousMonth_SameYear(t *testing.T) {
	tests := []struct {
		year      int
		month     int
		wantYear  int
		wantMonth int
	}{
		{2026, 6, 2026, 5},   // June -> May
		{2026, 12, 2026, 11}, // Dec -> Nov
		{2026, 2, 2026, 1},   // Feb -> Jan
	}

	for _, tt := range tests {
		gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
		if gotYear != tt.wantYear || gotMonth != tt.wantMonth {
			t.Errorf("PreviousMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tt.year, tt.month, gotYear, gotMonth, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestPreviousMonth_YearBoundary(t *testing.T) {
	gotYear, gotMonth := PreviousMonth(2026, 1)
	if gotYear != 2025 || gotMonth != 12 {
		t.Errorf("PreviousMonth(2026, 1) = (%d, %d), want (2025, 12)", gotYear, gotMonth)
	}
}

func TestNextMonth_YearBoundary(t *testing.T) {
	gotYear, gotMonth := NextMonth(2025, 12)
	if gotYear != 2026 || gotMonth != 1 {
		t.Errorf("NextMonth(2025, 12) = (%d, %d), want (2026, 1)", gotYear, gotMonth)
	}
}

func TestIsHistoricalMonth(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		year     int
		month    int
		expected bool
	}{
		{name: "current month is not historical", year: 2026, month: 3, expected: false},
		{name: "previous month is historical", year: 2026, month: 2, expected: true},
		{name: "last year is historical", year: 2025, month: 12, expected: true},
		{name: "next month is not historical", year: 2026, month: 4, expected: false},
		{name: "next year is not historical", year: 2027, month: 1, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHistoricalMonth(tt.year, tt.month, now); got != tt.expected {
				t.Errorf("IsHistoricalMonth(%d, %d) = %v, want %v", tt.year, tt.month, got, tt.expected)
			}
		})
	}
}

func TestCalculateActualDate(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		targetDay int
		wantDay   int
	}{
		{"day 15 in January", 2026, time.January, 15, 15},
		{"day 31 in January", 2026, time.January, 31, 31},
		{"day 31 in February non-leap", 2026, time.February, 31, 28},
		{"day 31 in February leap", 2024, time.February, 31, 29},
		{"day 31 in April", 2026, time.April, 31, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateActualDate(tt.year, tt.month, tt.targetDay)
			if got.Day() != tt.wantDay {
				t.Errorf("CalculateActualDate(%d, %s, %d) day = %d, want %d",
					tt.year, tt.month, tt.targetDay, got.Day(), tt.wantDay)
			}
			if got.Month() != tt.month {
				t.Errorf("CalculateActualDate month = %s, want %s", got.Month(), tt.month)
			}
		})
	}
}

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2024-03")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseMonthKey = %s, want %s", got, want)
	}

	for _, bad := range []string{"", "2024-13", "2024/03", "March"} {
		if _, err := ParseMonthKey(bad); err == nil {
			t.Errorf("ParseMonthKey(%q) expected error", bad)
		}
	}
}

func TestMonthsBefore(t *testing.T) {
	got := MonthsBefore(time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC), 3)
	want := []string{"2024-01", "2023-12", "2023-11"}
	if len(got) != len(want) {
		t.Fatalf("MonthsBefore returned %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MonthsBefore[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
