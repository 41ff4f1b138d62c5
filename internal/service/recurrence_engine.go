package service

import (
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
)

// RecurrenceRule is the strategy for one template frequency
type RecurrenceRule interface {
	// Next returns the occurrence that follows from
	Next(from time.Time) time.Time
	// CountInMonth estimates how many occurrences of a template fall into
	// [monthStart, monthEnd]. The template is known to be active in the month.
	CountInMonth(template *domain.RecurringTemplate, monthStart, monthEnd time.Time) int
}

// DailyRule occurs every day
type DailyRule struct{}

func (DailyRule) Next(from time.Time) time.Time {
	return util.AddDays(from, 1)
}

// CountInMonth counts the days from the later of start date and month start
// through the month end, inclusive
func (DailyRule) CountInMonth(template *domain.RecurringTemplate, monthStart, monthEnd time.Time) int {
	from := util.MaxDate(util.TruncateToDate(template.StartDate), monthStart)
	if from.After(monthEnd) {
		return 0
	}
	return util.DaysBetween(from, monthEnd) + 1
}

// IntervalRule occurs every Days days. Weekly and bi-weekly use it.
type IntervalRule struct {
	Days int
}

func (r IntervalRule) Next(from time.Time) time.Time {
	return util.AddDays(from, r.Days)
}

// CountInMonth divides the month span (last day minus first day) by the interval
func (r IntervalRule) CountInMonth(_ *domain.RecurringTemplate, monthStart, monthEnd time.Time) int {
	return util.DaysBetween(monthStart, monthEnd) / r.Days
}

// SemiMonthlyRule occurs on the 1st and the 15th
type SemiMonthlyRule struct{}

func (SemiMonthlyRule) Next(from time.Time) time.Time {
	if from.Day() < 15 {
		return util.Date(from.Year(), from.Month(), 15)
	}
	return util.Date(from.Year(), from.Month()+1, 1)
}

func (SemiMonthlyRule) CountInMonth(_ *domain.RecurringTemplate, _, _ time.Time) int {
	return 2
}

// MonthlyRule keeps the day of month, clamped to short months
type MonthlyRule struct{}

func (MonthlyRule) Next(from time.Time) time.Time {
	return util.AddMonthsClamped(from, 1)
}

func (MonthlyRule) CountInMonth(_ *domain.RecurringTemplate, _, _ time.Time) int {
	return 1
}

// YearlyRule occurs once a year in the start date's month
type YearlyRule struct{}

func (YearlyRule) Next(from time.Time) time.Time {
	return util.AddYears(from, 1)
}

func (YearlyRule) CountInMonth(template *domain.RecurringTemplate, monthStart, _ time.Time) int {
	if template.StartDate.Month() == monthStart.Month() {
		return 1
	}
	return 0
}

// DefaultRecurrenceRules maps every supported frequency to its rule
func DefaultRecurrenceRules() map[domain.Frequency]RecurrenceRule {
	return map[domain.Frequency]RecurrenceRule{
		domain.FrequencyDaily:       DailyRule{},
		domain.FrequencyWeekly:      IntervalRule{Days: 7},
		domain.FrequencyBiWeekly:    IntervalRule{Days: 14},
		domain.FrequencyFortnightly: IntervalRule{Days: 14},
		domain.FrequencySemiMonthly: SemiMonthlyRule{},
		domain.FrequencyMonthly:     MonthlyRule{},
		domain.FrequencyYearly:      YearlyRule{},
	}
}

// RecurrenceEngine computes occurrence dates and per-month occurrence counts
// of recurring templates. It holds no mutable state and is safe for concurrent use.
type RecurrenceEngine struct {
	rules map[domain.Frequency]RecurrenceRule
}

// NewRecurrenceEngine creates a RecurrenceEngine with the default rules
func NewRecurrenceEngine() *RecurrenceEngine {
	return &RecurrenceEngine{rules: DefaultRecurrenceRules()}
}

// NewRecurrenceEngineWithRules creates a RecurrenceEngine with a custom rule set
func NewRecurrenceEngineWithRules(rules map[domain.Frequency]RecurrenceRule) *RecurrenceEngine {
	return &RecurrenceEngine{rules: rules}
}

// Rule returns the rule registered for frequency
func (e *RecurrenceEngine) Rule(frequency domain.Frequency) (RecurrenceRule, error) {
	rule, ok := e.rules[frequency]
	if !ok {
		return nil, &domain.UnknownFrequencyError{Frequency: string(frequency)}
	}
	return rule, nil
}

// NextAfter returns the occurrence that follows from for the given frequency
func (e *RecurrenceEngine) NextAfter(frequency domain.Frequency, from time.Time) (time.Time, error) {
	rule, err := e.Rule(frequency)
	if err != nil {
		return time.Time{}, err
	}
	return rule.Next(util.TruncateToDate(from)), nil
}

// NextOccurrence returns the next occurrence of template after its last
// generated date, or after its start date if it was never generated
func (e *RecurrenceEngine) NextOccurrence(template *domain.RecurringTemplate) (time.Time, error) {
	return e.NextAfter(template.Frequency, template.GenerationAnchor())
}

// IsActiveInMonth reports whether template overlaps the given month
func (e *RecurrenceEngine) IsActiveInMonth(template *domain.RecurringTemplate, year int, month time.Month) bool {
	monthStart := util.FirstDayOfMonth(year, month)
	monthEnd := util.LastDayOfMonth(year, month)
	if util.TruncateToDate(template.StartDate).After(monthEnd) {
		return false
	}
	return template.EndDate == nil || !util.TruncateToDate(*template.EndDate).Before(monthStart)
}

// OccurrencesInMonth estimates how many times template posts in the given
// month. Templates inactive in the month count zero.
func (e *RecurrenceEngine) OccurrencesInMonth(template *domain.RecurringTemplate, year int, month time.Month) (int, error) {
	rule, err := e.Rule(template.Frequency)
	if err != nil {
		return 0, err
	}
	if !e.IsActiveInMonth(template, year, month) {
		return 0, nil
	}
	return rule.CountInMonth(template, util.FirstDayOfMonth(year, month), util.LastDayOfMonth(year, month)), nil
}
