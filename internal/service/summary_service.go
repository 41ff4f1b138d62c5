package service

import (
	"context"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/shopspring/decimal"
)

// MonthSummary is the realized view of one month for a set of users
type MonthSummary struct {
	Month             string                 `json:"month"`
	UserIDs           []int32                `json:"userIds"`
	TotalIncome       decimal.Decimal        `json:"totalIncome"`
	TotalExpenses     decimal.Decimal        `json:"totalExpenses"`
	NetBalance        decimal.Decimal        `json:"netBalance"`
	CategoryBreakdown []domain.CategoryTotal `json:"categoryBreakdown"`
}

// SummaryService aggregates stored transactions into monthly totals
type SummaryService struct {
	summaryRepo domain.SummaryRepository
	shares      *ShareService
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(summaryRepo domain.SummaryRepository, shares *ShareService) *SummaryService {
	return &SummaryService{summaryRepo: summaryRepo, shares: shares}
}

// Totals returns income and expense totals of month for userIDs
func (s *SummaryService) Totals(ctx context.Context, userIDs []int32, month string) (*domain.MonthlySummary, error) {
	if _, err := util.ParseMonthKey(month); err != nil {
		return nil, &domain.InvalidDateError{Field: "month", Value: month, Err: err}
	}
	return s.summaryRepo.MonthlySummary(ctx, userIDs, month)
}

// Breakdown returns expense totals per category of month for userIDs, largest first
func (s *SummaryService) Breakdown(ctx context.Context, userIDs []int32, month string) ([]domain.CategoryTotal, error) {
	if _, err := util.ParseMonthKey(month); err != nil {
		return nil, &domain.InvalidDateError{Field: "month", Value: month, Err: err}
	}
	return s.summaryRepo.CategoryBreakdown(ctx, userIDs, month)
}

// GetMonthSummary returns totals and category breakdown for the users the
// viewer may see, or for one requested accessible user
func (s *SummaryService) GetMonthSummary(ctx context.Context, viewerID int32, ownerID *int32, month string) (*MonthSummary, error) {
	userIDs, err := s.shares.ResolveUserIDs(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}

	totals, err := s.Totals(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.Breakdown(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	if breakdown == nil {
		breakdown = make([]domain.CategoryTotal, 0)
	}

	return &MonthSummary{
		Month:             month,
		UserIDs:           userIDs,
		TotalIncome:       totals.TotalIncome,
		TotalExpenses:     totals.TotalExpenses,
		NetBalance:        totals.TotalIncome.Sub(totals.TotalExpenses),
		CategoryBreakdown: breakdown,
	}, nil
}
