package domain

import (
	"context"
	"time"
)

// MonthlyReport is the exported snapshot of one month for a set of users
type MonthlyReport struct {
	ID                string          `json:"id"`
	Month             string          `json:"month"`
	UserIDs           []int32         `json:"userIds"`
	Currency          string          `json:"currency"`
	CurrencySymbol    string          `json:"currencySymbol"`
	Summary           MonthlySummary  `json:"summary"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	Transactions      []*Transaction  `json:"transactions"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	DownloadURL       string          `json:"downloadUrl,omitempty"`
	ObjectKey         string          `json:"objectKey,omitempty"`
}

// ReportStore archives rendered reports in object storage
type ReportStore interface {
	Save(ctx context.Context, key string, body []byte, contentType string) error
	// PresignedURL returns a time-limited download URL for key
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
