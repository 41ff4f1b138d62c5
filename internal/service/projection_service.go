package service

import (
	"context"
	"sort"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultHistoryMonths is how many past months feed the spending average
const DefaultHistoryMonths = 3

// ProjectionService estimates a future month's income and expenses from the
// user's recurring templates plus the average of recent realized expenses.
// It never persists anything and is safe for concurrent use.
type ProjectionService struct {
	templateRepo  domain.RecurringTemplateRepository
	summaryRepo   domain.SummaryRepository
	engine        *RecurrenceEngine
	historyMonths int
	logger        zerolog.Logger
	now           func() time.Time
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(
	templateRepo domain.RecurringTemplateRepository,
	summaryRepo domain.SummaryRepository,
	engine *RecurrenceEngine,
	historyMonths int,
	logger zerolog.Logger,
) *ProjectionService {
	if historyMonths < 0 {
		historyMonths = DefaultHistoryMonths
	}
	return &ProjectionService{
		templateRepo:  templateRepo,
		summaryRepo:   summaryRepo,
		engine:        engine,
		historyMonths: historyMonths,
		logger:        logger.With().Str("component", "projection").Logger(),
		now:           time.Now,
	}
}

// SetClock replaces the clock that anchors the history window
func (s *ProjectionService) SetClock(now func() time.Time) {
	s.now = now
}

// ProjectMonth projects month ("YYYY-MM") for userID with the configured history window
func (s *ProjectionService) ProjectMonth(ctx context.Context, userID int32, month string) (*domain.ProjectionResult, error) {
	return s.ProjectMonthWithHistory(ctx, userID, month, s.historyMonths)
}

// ProjectMonthWithHistory projects month using historyMonths past months for
// the spending average. Storage failures degrade to zero contributions.
func (s *ProjectionService) ProjectMonthWithHistory(ctx context.Context, userID int32, month string, historyMonths int) (*domain.ProjectionResult, error) {
	target, err := util.ParseMonthKey(month)
	if err != nil {
		return nil, &domain.InvalidDateError{Field: "month", Value: month, Err: err}
	}

	result := &domain.ProjectionResult{
		Month:                     month,
		ProjectedIncome:           decimal.Zero,
		ProjectedExpenses:         decimal.Zero,
		AverageHistoricalExpenses: decimal.Zero,
		CategoryAverages:          make([]domain.CategoryTotal, 0),
	}

	s.addRecurring(ctx, userID, target, result)
	s.addHistoricalAverage(ctx, userID, historyMonths, result)

	return result, nil
}

func (s *ProjectionService) addRecurring(ctx context.Context, userID int32, target time.Time, result *domain.ProjectionResult) {
	templates, err := s.templateRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int32("user_id", userID).Msg("Failed to load templates for projection")
		return
	}

	for _, template := range templates {
		if err := template.ValidateDates(); err != nil {
			s.logger.Warn().Err(err).Int32("template_id", template.ID).Msg("Skipping template with invalid dates")
			continue
		}

		count, err := s.engine.OccurrencesInMonth(template, target.Year(), target.Month())
		if err != nil {
			s.logger.Warn().Err(err).Int32("template_id", template.ID).Msg("Skipping template in projection")
			continue
		}
		if count == 0 {
			continue
		}

		amount := template.Amount.Mul(decimal.NewFromInt(int64(count)))
		if template.Type == domain.TransactionTypeIncome {
			result.ProjectedIncome = result.ProjectedIncome.Add(amount)
		} else {
			result.ProjectedExpenses = result.ProjectedExpenses.Add(amount)
		}
	}
}

// addHistoricalAverage adds the mean monthly expense of the months before the
// current one. The average does not exclude recurring expenses, so those are
// counted both here and in addRecurring.
func (s *ProjectionService) addHistoricalAverage(ctx context.Context, userID int32, historyMonths int, result *domain.ProjectionResult) {
	if historyMonths <= 0 {
		return
	}

	userIDs := []int32{userID}
	total := decimal.Zero
	categorySums := make(map[string]decimal.Decimal)

	for _, month := range util.MonthsBefore(s.now(), historyMonths) {
		summary, err := s.summaryRepo.MonthlySummary(ctx, userIDs, month)
		if err != nil {
			s.logger.Warn().Err(err).Int32("user_id", userID).Str("month", month).Msg("Historical summary unavailable, counting as zero")
		} else {
			total = total.Add(summary.TotalExpenses)
		}

		breakdown, err := s.summaryRepo.CategoryBreakdown(ctx, userIDs, month)
		if err != nil {
			s.logger.Warn().Err(err).Int32("user_id", userID).Str("month", month).Msg("Historical breakdown unavailable, counting as zero")
			continue
		}
		for _, c := range breakdown {
			categorySums[c.Category] = categorySums[c.Category].Add(c.Amount)
		}
	}

	divisor := decimal.NewFromInt(int64(historyMonths))
	average := total.Div(divisor)
	result.AverageHistoricalExpenses = average
	result.ProjectedExpenses = result.ProjectedExpenses.Add(average)

	for category, sum := range categorySums {
		result.CategoryAverages = append(result.CategoryAverages, domain.CategoryTotal{
			Category: category,
			Amount:   sum.Div(divisor),
		})
	}
	sort.Slice(result.CategoryAverages, func(i, j int) bool {
		a, b := result.CategoryAverages[i], result.CategoryAverages[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
}
