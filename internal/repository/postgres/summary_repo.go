package postgres

import (
	"context"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SummaryRepository aggregates transactions in PostgreSQL
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository creates a new SummaryRepository
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// MonthlySummary returns income and expense totals of userIDs in month
func (r *SummaryRepository) MonthlySummary(ctx context.Context, userIDs []int32, month string) (*domain.MonthlySummary, error) {
	from, to, err := monthBounds(month)
	if err != nil {
		return nil, err
	}

	var income, expenses pgtype.Numeric
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE user_id = ANY($1) AND transaction_date >= $2 AND transaction_date < $3`,
		userIDs, from, to).Scan(&income, &expenses)
	if err != nil {
		return nil, storageErr("monthly summary", err, nil)
	}

	return &domain.MonthlySummary{
		TotalIncome:   pgNumericToDecimal(income),
		TotalExpenses: pgNumericToDecimal(expenses),
	}, nil
}

// CategoryBreakdown returns expense totals per category, largest first
func (r *SummaryRepository) CategoryBreakdown(ctx context.Context, userIDs []int32, month string) ([]domain.CategoryTotal, error) {
	from, to, err := monthBounds(month)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT category, SUM(amount) AS total
		FROM transactions
		WHERE user_id = ANY($1) AND type = 'expense' AND transaction_date >= $2 AND transaction_date < $3
		GROUP BY category
		ORDER BY total DESC, category ASC`,
		userIDs, from, to)
	if err != nil {
		return nil, storageErr("category breakdown", err, nil)
	}
	defer rows.Close()

	result := make([]domain.CategoryTotal, 0)
	for rows.Next() {
		var category string
		var total pgtype.Numeric
		if err := rows.Scan(&category, &total); err != nil {
			return nil, storageErr("category breakdown", err, nil)
		}
		result = append(result, domain.CategoryTotal{Category: category, Amount: pgNumericToDecimal(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("category breakdown", err, nil)
	}
	return result, nil
}
