package postgres

import (
	"context"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const billColumns = `id, user_id, description, amount, due_date, category, is_paid, recurring_frequency, created_at, updated_at`

// BillRepository implements domain.BillRepository using PostgreSQL
type BillRepository struct {
	pool *pgxpool.Pool
}

// NewBillRepository creates a new BillRepository
func NewBillRepository(pool *pgxpool.Pool) *BillRepository {
	return &BillRepository{pool: pool}
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	var amount pgtype.Numeric
	var dueDate pgtype.Date
	var category pgtype.Text
	var frequency string
	if err := row.Scan(&b.ID, &b.UserID, &b.Description, &amount, &dueDate, &category, &b.IsPaid, &frequency, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Amount = pgNumericToDecimal(amount)
	b.DueDate = dueDate.Time.UTC()
	b.Category = pgTextToStringPtr(category)
	b.RecurringFrequency = domain.BillFrequency(frequency)
	return &b, nil
}

func (r *BillRepository) queryBills(ctx context.Context, op, sql string, args ...any) ([]*domain.Bill, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr(op, err, nil)
	}
	defer rows.Close()

	result := make([]*domain.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, storageErr(op, err, nil)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err, nil)
	}
	return result, nil
}

// Create creates a new bill
func (r *BillRepository) Create(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	amount, err := decimalToPgNumeric(bill.Amount)
	if err != nil {
		return nil, err
	}
	created, err := scanBill(r.pool.QueryRow(ctx, `
		INSERT INTO bills (user_id, description, amount, due_date, category, is_paid, recurring_frequency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+billColumns,
		bill.UserID, bill.Description, amount, timeToPgDate(bill.DueDate),
		stringPtrToPgText(bill.Category), bill.IsPaid, string(bill.RecurringFrequency)))
	if err != nil {
		return nil, storageErr("create bill", err, nil)
	}
	return created, nil
}

// GetByID retrieves one of the user's bills
func (r *BillRepository) GetByID(ctx context.Context, userID int32, id int32) (*domain.Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, storageErr("get bill", err, domain.ErrBillNotFound)
	}
	return b, nil
}

// Update replaces the editable fields of a bill
func (r *BillRepository) Update(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	amount, err := decimalToPgNumeric(bill.Amount)
	if err != nil {
		return nil, err
	}
	updated, err := scanBill(r.pool.QueryRow(ctx, `
		UPDATE bills
		SET description = $3, amount = $4, due_date = $5, category = $6, is_paid = $7,
		    recurring_frequency = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+billColumns,
		bill.ID, bill.UserID, bill.Description, amount, timeToPgDate(bill.DueDate),
		stringPtrToPgText(bill.Category), bill.IsPaid, string(bill.RecurringFrequency)))
	if err != nil {
		return nil, storageErr("update bill", err, domain.ErrBillNotFound)
	}
	return updated, nil
}

// SetPaid marks a bill paid or unpaid
func (r *BillRepository) SetPaid(ctx context.Context, userID int32, id int32, isPaid bool) (*domain.Bill, error) {
	updated, err := scanBill(r.pool.QueryRow(ctx, `
		UPDATE bills SET is_paid = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+billColumns,
		id, userID, isPaid))
	if err != nil {
		return nil, storageErr("set bill paid", err, domain.ErrBillNotFound)
	}
	return updated, nil
}

// Delete removes one of the user's bills
func (r *BillRepository) Delete(ctx context.Context, userID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return storageErr("delete bill", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}

// ListByUser lists a user's bills, soonest due first with unpaid bills ahead of paid ones
func (r *BillRepository) ListByUser(ctx context.Context, userID int32) ([]*domain.Bill, error) {
	return r.queryBills(ctx, "list bills", `
		SELECT `+billColumns+` FROM bills
		WHERE user_id = $1
		ORDER BY due_date ASC, is_paid ASC, id ASC`, userID)
}

// ListUnpaidDueBetween lists unpaid bills due within [from, to]
func (r *BillRepository) ListUnpaidDueBetween(ctx context.Context, userID int32, from, to time.Time) ([]*domain.Bill, error) {
	return r.queryBills(ctx, "list upcoming bills", `
		SELECT `+billColumns+` FROM bills
		WHERE user_id = $1 AND is_paid = FALSE AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date ASC, id ASC`,
		userID, timeToPgDate(from), timeToPgDate(to))
}
