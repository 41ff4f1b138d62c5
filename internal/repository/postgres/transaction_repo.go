package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, user_id, type, amount, category, description, transaction_date, template_id, created_at, updated_at`

// sortColumns whitelists the columns a listing may be ordered by
var sortColumns = map[string]string{
	domain.SortByDate:     "transaction_date",
	domain.SortByAmount:   "amount",
	domain.SortByCategory: "category",
	domain.SortByType:     "type",
}

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var txType string
	var amount pgtype.Numeric
	var date pgtype.Date
	var templateID pgtype.Int4
	if err := row.Scan(&t.ID, &t.UserID, &txType, &amount, &t.Category, &t.Description, &date, &templateID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.Amount = pgNumericToDecimal(amount)
	t.TransactionDate = date.Time.UTC()
	t.TemplateID = pgInt4ToInt32Ptr(templateID)
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()
	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func insertTransaction(ctx context.Context, q querier, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, err
	}
	return scanTransaction(q.QueryRow(ctx, `
		INSERT INTO transactions (user_id, type, amount, category, description, transaction_date, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		transaction.UserID,
		string(transaction.Type),
		amount,
		transaction.Category,
		transaction.Description,
		timeToPgDate(transaction.TransactionDate),
		int32PtrToPgInt4(transaction.TemplateID),
	))
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	created, err := insertTransaction(ctx, r.pool, transaction)
	if err != nil {
		return nil, storageErr("create transaction", err, nil)
	}
	return created, nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, storageErr("get transaction", err, domain.ErrTransactionNotFound)
	}
	return t, nil
}

// List retrieves a page of transactions owned by any of userIDs
func (r *TransactionRepository) List(ctx context.Context, userIDs []int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}

	conditions := []string{"user_id = ANY($1)"}
	args := []any{userIDs}

	if filters.Month != "" {
		from, to, err := monthBounds(filters.Month)
		if err != nil {
			return nil, err
		}
		args = append(args, from, to)
		conditions = append(conditions, fmt.Sprintf("transaction_date >= $%d AND transaction_date < $%d", len(args)-1, len(args)))
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(description ILIKE $%d OR category ILIKE $%d)", len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, storageErr("count transactions", err, nil)
	}

	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = sortColumns[domain.SortByDate]
	}
	direction := "ASC"
	if filters.Descending {
		direction = "DESC"
	}

	page, pageSize := filters.Page, filters.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}
	if pageSize > domain.MaxPageSize {
		pageSize = domain.MaxPageSize
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		transactionColumns, where, column, direction, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list transactions", err, nil)
	}
	data, err := collectTransactions(rows)
	if err != nil {
		return nil, storageErr("list transactions", err, nil)
	}

	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: int32((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// Update replaces the editable fields of a transaction
func (r *TransactionRepository) Update(ctx context.Context, id int32, data *domain.UpdateTransactionData) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(data.Amount)
	if err != nil {
		return nil, err
	}
	t, err := scanTransaction(r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET type = $2, amount = $3, category = $4, description = $5, transaction_date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, string(data.Type), amount, data.Category, data.Description, timeToPgDate(data.TransactionDate)))
	if err != nil {
		return nil, storageErr("update transaction", err, domain.ErrTransactionNotFound)
	}
	return t, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete transaction", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// ListByMonth returns every transaction of userIDs in month, oldest first
func (r *TransactionRepository) ListByMonth(ctx context.Context, userIDs []int32, month string) ([]*domain.Transaction, error) {
	from, to, err := monthBounds(month)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ANY($1) AND transaction_date >= $2 AND transaction_date < $3
		ORDER BY transaction_date ASC, id ASC`,
		userIDs, from, to)
	if err != nil {
		return nil, storageErr("list transactions by month", err, nil)
	}
	result, err := collectTransactions(rows)
	if err != nil {
		return nil, storageErr("list transactions by month", err, nil)
	}
	return result, nil
}
