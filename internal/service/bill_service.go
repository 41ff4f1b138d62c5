package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// BillInput holds the editable fields of a bill
type BillInput struct {
	Description        string
	Amount             decimal.Decimal
	DueDate            time.Time
	Category           *string
	IsPaid             bool
	RecurringFrequency domain.BillFrequency
}

// BillService handles bill-related business logic
type BillService struct {
	billRepo       domain.BillRepository
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewBillService creates a new BillService
func NewBillService(billRepo domain.BillRepository) *BillService {
	return &BillService{billRepo: billRepo, now: time.Now}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BillService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the clock used for upcoming-bill windows
func (s *BillService) SetClock(now func() time.Time) {
	s.now = now
}

func validateBillInput(input *BillInput) error {
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return domain.ErrDescriptionRequired
	}
	if len(input.Description) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if input.DueDate.IsZero() {
		return &domain.InvalidDateError{Field: "due_date"}
	}
	input.DueDate = util.TruncateToDate(input.DueDate)
	if input.Category != nil {
		trimmed := strings.TrimSpace(*input.Category)
		if trimmed == "" {
			input.Category = nil
		} else if len(trimmed) > domain.MaxCategoryLength {
			return domain.ErrCategoryTooLong
		} else {
			input.Category = &trimmed
		}
	}
	if !input.RecurringFrequency.IsValid() {
		return domain.ErrInvalidBillFrequency
	}
	return nil
}

// CreateBill creates an unpaid bill
func (s *BillService) CreateBill(ctx context.Context, userID int32, input BillInput) (*domain.Bill, error) {
	if err := validateBillInput(&input); err != nil {
		return nil, err
	}

	created, err := s.billRepo.Create(ctx, &domain.Bill{
		UserID:             userID,
		Description:        input.Description,
		Amount:             input.Amount,
		DueDate:            input.DueDate,
		Category:           input.Category,
		RecurringFrequency: input.RecurringFrequency,
	})
	if err != nil {
		return nil, err
	}

	s.publish(userID, websocket.BillCreated(created))
	return created, nil
}

// UpdateBill replaces all editable fields of a bill, including its paid flag
func (s *BillService) UpdateBill(ctx context.Context, userID int32, id int32, input BillInput) (*domain.Bill, error) {
	if err := validateBillInput(&input); err != nil {
		return nil, err
	}

	existing, err := s.billRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	existing.Description = input.Description
	existing.Amount = input.Amount
	existing.DueDate = input.DueDate
	existing.Category = input.Category
	existing.IsPaid = input.IsPaid
	existing.RecurringFrequency = input.RecurringFrequency

	updated, err := s.billRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.publish(userID, websocket.BillUpdated(updated))
	return updated, nil
}

// SetPaid marks a bill as paid or unpaid
func (s *BillService) SetPaid(ctx context.Context, userID int32, id int32, isPaid bool) (*domain.Bill, error) {
	updated, err := s.billRepo.SetPaid(ctx, userID, id, isPaid)
	if err != nil {
		return nil, err
	}
	s.publish(userID, websocket.BillUpdated(updated))
	return updated, nil
}

// DeleteBill deletes a bill
func (s *BillService) DeleteBill(ctx context.Context, userID int32, id int32) error {
	if err := s.billRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(userID, websocket.BillDeleted(map[string]interface{}{"id": id}))
	return nil
}

// GetBill retrieves one of the user's bills
func (s *BillService) GetBill(ctx context.Context, userID int32, id int32) (*domain.Bill, error) {
	return s.billRepo.GetByID(ctx, userID, id)
}

// ListBills returns all bills of the user ordered by due date
func (s *BillService) ListBills(ctx context.Context, userID int32) ([]*domain.Bill, error) {
	return s.billRepo.ListByUser(ctx, userID)
}

// UpcomingBills returns unpaid bills due from today through today+days, inclusive
func (s *BillService) UpcomingBills(ctx context.Context, userID int32, days int) ([]*domain.Bill, error) {
	if days <= 0 {
		days = domain.DefaultUpcomingBillDays
	}
	today := util.TruncateToDate(s.now())
	return s.billRepo.ListUnpaidDueBetween(ctx, userID, today, util.AddDays(today, days))
}

func (s *BillService) publish(userID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}
