package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BillFrequency is a display label only; bills are never materialized
type BillFrequency string

const (
	BillFrequencyNone    BillFrequency = ""
	BillFrequencyDaily   BillFrequency = "daily"
	BillFrequencyWeekly  BillFrequency = "weekly"
	BillFrequencyMonthly BillFrequency = "monthly"
	BillFrequencyYearly  BillFrequency = "yearly"
)

// IsValid reports whether f is a known bill frequency label
func (f BillFrequency) IsValid() bool {
	switch f {
	case BillFrequencyNone, BillFrequencyDaily, BillFrequencyWeekly, BillFrequencyMonthly, BillFrequencyYearly:
		return true
	}
	return false
}

const DefaultUpcomingBillDays = 30

type Bill struct {
	ID                 int32           `json:"id"`
	UserID             int32           `json:"userId"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	DueDate            time.Time       `json:"dueDate"`
	Category           *string         `json:"category,omitempty"`
	IsPaid             bool            `json:"isPaid"`
	RecurringFrequency BillFrequency   `json:"recurringFrequency"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type BillRepository interface {
	Create(ctx context.Context, bill *Bill) (*Bill, error)
	GetByID(ctx context.Context, userID int32, id int32) (*Bill, error)
	Update(ctx context.Context, bill *Bill) (*Bill, error)
	SetPaid(ctx context.Context, userID int32, id int32, isPaid bool) (*Bill, error)
	Delete(ctx context.Context, userID int32, id int32) error
	// ListByUser orders by due date, unpaid first on the same day
	ListByUser(ctx context.Context, userID int32) ([]*Bill, error)
	ListUnpaidDueBetween(ctx context.Context, userID int32, from, to time.Time) ([]*Bill, error)
}
