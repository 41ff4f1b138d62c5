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

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	shares          *ShareService
	eventPublisher  websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, shares *ShareService) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		shares:          shares,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	// OwnerID is the user the transaction is recorded for; nil means the actor
	OwnerID         *int32
	Type            domain.TransactionType
	Amount          decimal.Decimal
	Category        string
	Description     string
	TransactionDate *time.Time
}

// UpdateTransactionInput holds the input for updating a transaction
type UpdateTransactionInput struct {
	Type            domain.TransactionType
	Amount          decimal.Decimal
	Category        string
	Description     string
	TransactionDate time.Time
}

// validateEntry checks the fields shared by transactions and templates and
// returns the trimmed category and description
func validateEntry(txType domain.TransactionType, amount decimal.Decimal, category, description string) (string, string, error) {
	if !txType.IsValid() {
		return "", "", domain.ErrInvalidTransactionType
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", "", domain.ErrInvalidAmount
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return "", "", domain.ErrCategoryRequired
	}
	if len(category) > domain.MaxCategoryLength {
		return "", "", domain.ErrCategoryTooLong
	}
	description = strings.TrimSpace(description)
	if len(description) > domain.MaxDescriptionLength {
		return "", "", domain.ErrDescriptionTooLong
	}
	return category, description, nil
}

// CreateTransaction records a manual transaction for the actor or for a user
// who granted the actor write access
func (s *TransactionService) CreateTransaction(ctx context.Context, actorID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	category, description, err := validateEntry(input.Type, input.Amount, input.Category, input.Description)
	if err != nil {
		return nil, err
	}

	ownerID := actorID
	if input.OwnerID != nil {
		ownerID = *input.OwnerID
	}
	if !s.shares.HasWritePermission(ctx, ownerID, actorID) {
		return nil, domain.ErrForbidden
	}

	// Default transaction_date to today if not provided
	transactionDate := util.TruncateToDate(time.Now().UTC())
	if input.TransactionDate != nil {
		transactionDate = util.TruncateToDate(*input.TransactionDate)
	}

	created, err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:          ownerID,
		Type:            input.Type,
		Amount:          input.Amount,
		Category:        category,
		Description:     description,
		TransactionDate: transactionDate,
	})
	if err != nil {
		return nil, err
	}

	s.publish(created.UserID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransactions lists transactions visible to the viewer, optionally
// narrowed to one accessible owner
func (s *TransactionService) GetTransactions(ctx context.Context, viewerID int32, ownerID *int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	userIDs, err := s.shares.ResolveUserIDs(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizeTransactionFilters(filters)
	if err != nil {
		return nil, err
	}
	return s.transactionRepo.List(ctx, userIDs, normalized)
}

// GetTransactionByID returns a transaction the viewer may read
func (s *TransactionService) GetTransactionByID(ctx context.Context, viewerID int32, id int32) (*domain.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.shares.CanRead(ctx, txn.UserID, viewerID) {
		return nil, domain.ErrTransactionNotFound
	}
	return txn, nil
}

// UpdateTransaction updates a transaction the actor may write
func (s *TransactionService) UpdateTransaction(ctx context.Context, actorID int32, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	category, description, err := validateEntry(input.Type, input.Amount, input.Category, input.Description)
	if err != nil {
		return nil, err
	}
	if input.TransactionDate.IsZero() {
		return nil, &domain.InvalidDateError{Field: "transaction_date"}
	}

	existing, err := s.authorizeWrite(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.Update(ctx, existing.ID, &domain.UpdateTransactionData{
		Type:            input.Type,
		Amount:          input.Amount,
		Category:        category,
		Description:     description,
		TransactionDate: util.TruncateToDate(input.TransactionDate),
	})
	if err != nil {
		return nil, err
	}

	s.publish(updated.UserID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction deletes a transaction the actor may write
func (s *TransactionService) DeleteTransaction(ctx context.Context, actorID int32, id int32) error {
	existing, err := s.authorizeWrite(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.transactionRepo.Delete(ctx, existing.ID); err != nil {
		return err
	}

	s.publish(existing.UserID, websocket.TransactionDeleted(map[string]interface{}{"id": existing.ID}))
	return nil
}

// authorizeWrite loads a transaction and checks the actor's write permission.
// Transactions the actor cannot even read are reported as not found.
func (s *TransactionService) authorizeWrite(ctx context.Context, actorID int32, id int32) (*domain.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.shares.CanRead(ctx, txn.UserID, actorID) {
		return nil, domain.ErrTransactionNotFound
	}
	if !s.shares.HasWritePermission(ctx, txn.UserID, actorID) {
		return nil, domain.ErrForbidden
	}
	return txn, nil
}

func (s *TransactionService) publish(userID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// NormalizeTransactionFilters applies defaults and bounds to list filters
func NormalizeTransactionFilters(filters *domain.TransactionFilters) (*domain.TransactionFilters, error) {
	f := domain.TransactionFilters{}
	if filters != nil {
		f = *filters
	}

	if f.Month != "" {
		if _, err := util.ParseMonthKey(f.Month); err != nil {
			return nil, &domain.InvalidDateError{Field: "month", Value: f.Month, Err: err}
		}
	}
	f.Search = strings.TrimSpace(f.Search)

	switch f.SortBy {
	case domain.SortByDate, domain.SortByAmount, domain.SortByCategory, domain.SortByType:
	default:
		f.SortBy = domain.SortByDate
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = domain.DefaultPageSize
	}
	if f.PageSize > domain.MaxPageSize {
		f.PageSize = domain.MaxPageSize
	}
	return &f, nil
}
