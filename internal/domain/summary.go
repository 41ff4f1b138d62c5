package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MonthlySummary holds realized totals for one month
type MonthlySummary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
}

// CategoryTotal is the expense total of one category within a month
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ProjectionResult is a non-persisted estimate for one future month
type ProjectionResult struct {
	Month             string          `json:"month"`
	ProjectedIncome   decimal.Decimal `json:"projectedIncome"`
	ProjectedExpenses decimal.Decimal `json:"projectedExpenses"`
	// AverageHistoricalExpenses is the part of ProjectedExpenses taken from past months
	AverageHistoricalExpenses decimal.Decimal `json:"averageHistoricalExpenses"`
	// CategoryAverages breaks the historical average down by category, largest first
	CategoryAverages []CategoryTotal `json:"categoryAverages"`
}

// Net returns projected income minus projected expenses
func (p *ProjectionResult) Net() decimal.Decimal {
	return p.ProjectedIncome.Sub(p.ProjectedExpenses)
}

// SummaryRepository provides read-only aggregations over stored transactions.
// Months are "YYYY-MM" keys.
type SummaryRepository interface {
	MonthlySummary(ctx context.Context, userIDs []int32, month string) (*MonthlySummary, error)
	// CategoryBreakdown returns expense totals per category, largest first
	CategoryBreakdown(ctx context.Context, userIDs []int32, month string) ([]CategoryTotal, error)
}
