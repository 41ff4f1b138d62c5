package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiWeekly    Frequency = "bi-weekly"
	FrequencyFortnightly Frequency = "fortnightly"
	FrequencySemiMonthly Frequency = "semi-monthly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyYearly      Frequency = "yearly"
)

// Frequencies lists every supported template frequency
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyBiWeekly,
	FrequencyFortnightly,
	FrequencySemiMonthly,
	FrequencyMonthly,
	FrequencyYearly,
}

// ParseFrequency validates s as a template frequency, ignoring case
func ParseFrequency(s string) (Frequency, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Frequencies {
		if string(f) == normalized {
			return f, nil
		}
	}
	return "", &UnknownFrequencyError{Frequency: s}
}

// RecurringTemplate defines a transaction that repeats on a schedule
type RecurringTemplate struct {
	ID                int32           `json:"id"`
	UserID            int32           `json:"userId"`
	Type              TransactionType `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	Frequency         Frequency       `json:"frequency"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           *time.Time      `json:"endDate,omitempty"`
	LastGeneratedDate *time.Time      `json:"lastGeneratedDate,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// GenerationAnchor is the date the next occurrence is computed from:
// the last materialized occurrence, or the start date if none was generated yet
func (t *RecurringTemplate) GenerationAnchor() time.Time {
	if t.LastGeneratedDate != nil {
		return *t.LastGeneratedDate
	}
	return t.StartDate
}

// ValidateDates checks that the template dates are usable
func (t *RecurringTemplate) ValidateDates() error {
	if t.StartDate.IsZero() {
		return &InvalidDateError{Field: "start_date", Value: ""}
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return &InvalidDateError{Field: "end_date", Value: t.EndDate.Format("2006-01-02")}
	}
	if t.LastGeneratedDate != nil && t.LastGeneratedDate.Before(t.StartDate) {
		return &InvalidDateError{Field: "last_generated_date", Value: t.LastGeneratedDate.Format("2006-01-02")}
	}
	return nil
}

// RecurringTemplateInput holds the user-editable fields of a template
type RecurringTemplateInput struct {
	Type        TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Frequency   Frequency
	StartDate   time.Time
	EndDate     *time.Time
}

type RecurringTemplateRepository interface {
	Create(ctx context.Context, template *RecurringTemplate) (*RecurringTemplate, error)
	GetByID(ctx context.Context, userID int32, id int32) (*RecurringTemplate, error)
	ListByUser(ctx context.Context, userID int32) ([]*RecurringTemplate, error)
	// ListStartedBy returns templates with start_date <= asOf, for one user or all users when userID is nil
	ListStartedBy(ctx context.Context, asOf time.Time, userID *int32) ([]*RecurringTemplate, error)
	Update(ctx context.Context, userID int32, id int32, input *RecurringTemplateInput) (*RecurringTemplate, error)
	Delete(ctx context.Context, userID int32, id int32) error
}

// OccurrenceTx is the unit of work used to materialize one occurrence.
// All calls made through one OccurrenceTx commit or roll back together.
type OccurrenceTx interface {
	OccurrenceExists(ctx context.Context, key OccurrenceKey) (bool, error)
	CreateTransaction(ctx context.Context, transaction *Transaction) (*Transaction, error)
	AdvanceLastGenerated(ctx context.Context, templateID int32, date time.Time) error
}

// OccurrenceStore runs fn inside one atomic unit of work
type OccurrenceStore interface {
	WithinOccurrenceTx(ctx context.Context, fn func(tx OccurrenceTx) error) error
}
