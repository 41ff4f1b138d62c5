package service

import (
	"context"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// DashboardOverview bundles what the dashboard shows on load
type DashboardOverview struct {
	Summary        *MonthSummary              `json:"summary"`
	Projection     *domain.ProjectionOverview `json:"projection"`
	UpcomingBills  []*domain.Bill             `json:"upcomingBills"`
	Preferences    domain.UserPreferences     `json:"preferences"`
	CurrencySymbol string                     `json:"currencySymbol"`
}

// DashboardService handles dashboard-related business logic
type DashboardService struct {
	summaries   *SummaryService
	projections *ProjectionService
	bills       *BillService
	profiles    *ProfileService
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	summaries *SummaryService,
	projections *ProjectionService,
	bills *BillService,
	profiles *ProfileService,
) *DashboardService {
	return &DashboardService{
		summaries:   summaries,
		projections: projections,
		bills:       bills,
		profiles:    profiles,
		now:         time.Now,
	}
}

// SetClock replaces the clock used for default months
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

// CurrentMonth returns the key of the current month
func (s *DashboardService) CurrentMonth() string {
	return util.MonthKey(s.now())
}

// NextMonth returns the key of the month after the current one
func (s *DashboardService) NextMonth() string {
	now := s.now()
	year, month := util.NextMonth(now.Year(), int(now.Month()))
	return util.MonthKey(util.FirstDayOfMonth(year, time.Month(month)))
}

// GetSummary returns the realized summary of month, the current month when empty
func (s *DashboardService) GetSummary(ctx context.Context, viewerID int32, ownerID *int32, month string) (*MonthSummary, error) {
	if month == "" {
		month = s.CurrentMonth()
	}
	return s.summaries.GetMonthSummary(ctx, viewerID, ownerID, month)
}

// GetProjection projects month for the user, next month when empty
func (s *DashboardService) GetProjection(ctx context.Context, userID int32, month string) (*domain.ProjectionOverview, error) {
	if month == "" {
		month = s.NextMonth()
	}
	result, err := s.projections.ProjectMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	return domain.NewProjectionOverview(result), nil
}

// GetOverview returns the current month summary, next month's projection and
// bills due within the default window
func (s *DashboardService) GetOverview(ctx context.Context, userID int32) (*DashboardOverview, error) {
	summary, err := s.GetSummary(ctx, userID, nil, "")
	if err != nil {
		return nil, err
	}
	projection, err := s.GetProjection(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	bills, err := s.bills.UpcomingBills(ctx, userID, domain.DefaultUpcomingBillDays)
	if err != nil {
		log.Warn().Err(err).Int32("user_id", userID).Msg("Failed to load upcoming bills for dashboard")
		bills = make([]*domain.Bill, 0)
	}

	prefs := s.profiles.GetPreferences(ctx, userID)
	return &DashboardOverview{
		Summary:        summary,
		Projection:     projection,
		UpcomingBills:  bills,
		Preferences:    prefs,
		CurrencySymbol: CurrencySymbol(prefs.Currency),
	}, nil
}
