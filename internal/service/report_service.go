package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultReportURLExpiry is how long a report download link stays valid
const DefaultReportURLExpiry = 15 * time.Minute

const reportContentType = "application/json"

// ReportService builds monthly reports and archives them in object storage
type ReportService struct {
	summaries       *SummaryService
	transactionRepo domain.TransactionRepository
	profiles        *ProfileService
	shares          *ShareService
	store           domain.ReportStore
	urlExpiry       time.Duration
	now             func() time.Time
}

// NewReportService creates a new ReportService. A nil store disables archiving.
func NewReportService(
	summaries *SummaryService,
	transactionRepo domain.TransactionRepository,
	profiles *ProfileService,
	shares *ShareService,
	store domain.ReportStore,
) *ReportService {
	return &ReportService{
		summaries:       summaries,
		transactionRepo: transactionRepo,
		profiles:        profiles,
		shares:          shares,
		store:           store,
		urlExpiry:       DefaultReportURLExpiry,
		now:             time.Now,
	}
}

// SetURLExpiry sets the lifetime of presigned download links
func (s *ReportService) SetURLExpiry(expiry time.Duration) {
	if expiry > 0 {
		s.urlExpiry = expiry
	}
}

// SetClock replaces the clock stamped on generated reports
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// BuildMonthlyReport assembles the report of month for the users viewerID may see
func (s *ReportService) BuildMonthlyReport(ctx context.Context, viewerID int32, ownerID *int32, month string) (*domain.MonthlyReport, error) {
	userIDs, err := s.shares.ResolveUserIDs(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}

	totals, err := s.summaries.Totals(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.summaries.Breakdown(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	if breakdown == nil {
		breakdown = make([]domain.CategoryTotal, 0)
	}

	transactions, err := s.transactionRepo.ListByMonth(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, domain.ErrReportEmpty
	}

	prefs := s.profiles.GetPreferences(ctx, viewerID)
	return &domain.MonthlyReport{
		ID:                uuid.New().String(),
		Month:             month,
		UserIDs:           userIDs,
		Currency:          prefs.Currency,
		CurrencySymbol:    CurrencySymbol(prefs.Currency),
		Summary:           *totals,
		CategoryBreakdown: breakdown,
		Transactions:      transactions,
		GeneratedAt:       s.now().UTC(),
	}, nil
}

// GenerateMonthlyReport builds the report and, when a store is configured,
// archives it and attaches a download link
func (s *ReportService) GenerateMonthlyReport(ctx context.Context, viewerID int32, ownerID *int32, month string) (*domain.MonthlyReport, error) {
	report, err := s.BuildMonthlyReport(ctx, viewerID, ownerID, month)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return report, nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportObjectKey(viewerID, month, report.ID)
	if err := s.store.Save(ctx, key, body, reportContentType); err != nil {
		return nil, domain.NewStorageError("save report", err)
	}
	report.ObjectKey = key

	url, err := s.store.PresignedURL(ctx, key, s.urlExpiry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to presign report URL")
		return report, nil
	}
	report.DownloadURL = url
	return report, nil
}

// ReportObjectKey returns where a report is stored
func ReportObjectKey(userID int32, month, reportID string) string {
	return path.Join("reports", fmt.Sprintf("%d", userID), month, reportID+".json")
}
