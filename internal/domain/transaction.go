package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is income or expense
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type Transaction struct {
	ID              int32           `json:"id"`
	UserID          int32           `json:"userId"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transactionDate"`
	TemplateID      *int32          `json:"templateId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// RecurringDescriptionMarker returns the suffix that ties a materialized
// transaction's description to its template
func RecurringDescriptionMarker(templateID int32) string {
	return fmt.Sprintf(" (Recurring from template ID: %d)", templateID)
}

// RecurringDescription annotates a template description with its template id
func RecurringDescription(description string, templateID int32) string {
	return description + RecurringDescriptionMarker(templateID)
}

// Sortable transaction columns
const (
	SortByDate     = "transaction_date"
	SortByAmount   = "amount"
	SortByCategory = "category"
	SortByType     = "type"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type TransactionFilters struct {
	Month      string // YYYY-MM, empty for all months
	Search     string
	SortBy     string
	Descending bool
	Page       int32
	PageSize   int32
}

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

type UpdateTransactionData struct {
	Type            TransactionType
	Amount          decimal.Decimal
	Category        string
	Description     string
	TransactionDate time.Time
}

// OccurrenceKey identifies one materialized occurrence of a template.
// It is the de-duplication signature of the materializer.
type OccurrenceKey struct {
	UserID     int32
	TemplateID int32
	Type       TransactionType
	Amount     decimal.Decimal
	Category   string
	Date       time.Time
	// DescriptionPrefix is matched as a prefix of stored descriptions
	DescriptionPrefix string
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, id int32) (*Transaction, error)
	List(ctx context.Context, userIDs []int32, filters *TransactionFilters) (*PaginatedTransactions, error)
	Update(ctx context.Context, id int32, data *UpdateTransactionData) (*Transaction, error)
	Delete(ctx context.Context, id int32) error
	ListByMonth(ctx context.Context, userIDs []int32, month string) ([]*Transaction, error)
}
