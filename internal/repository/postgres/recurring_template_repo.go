package postgres

import (
	"context"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateColumns = `id, user_id, type, amount, category, description, frequency, start_date, end_date, last_generated_date, created_at, updated_at`

// RecurringTemplateRepository implements domain.RecurringTemplateRepository using PostgreSQL
type RecurringTemplateRepository struct {
	pool *pgxpool.Pool
}

// NewRecurringTemplateRepository creates a new RecurringTemplateRepository
func NewRecurringTemplateRepository(pool *pgxpool.Pool) *RecurringTemplateRepository {
	return &RecurringTemplateRepository{pool: pool}
}

func scanTemplate(row pgx.Row) (*domain.RecurringTemplate, error) {
	var t domain.RecurringTemplate
	var txType, frequency string
	var amount pgtype.Numeric
	var startDate, endDate, lastGenerated pgtype.Date
	if err := row.Scan(&t.ID, &t.UserID, &txType, &amount, &t.Category, &t.Description, &frequency,
		&startDate, &endDate, &lastGenerated, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.Amount = pgNumericToDecimal(amount)
	t.Frequency = domain.Frequency(frequency)
	t.StartDate = startDate.Time.UTC()
	t.EndDate = pgDateToTimePtr(endDate)
	t.LastGeneratedDate = pgDateToTimePtr(lastGenerated)
	return &t, nil
}

func collectTemplates(rows pgx.Rows) ([]*domain.RecurringTemplate, error) {
	defer rows.Close()
	result := make([]*domain.RecurringTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Create creates a new recurring template
func (r *RecurringTemplateRepository) Create(ctx context.Context, template *domain.RecurringTemplate) (*domain.RecurringTemplate, error) {
	amount, err := decimalToPgNumeric(template.Amount)
	if err != nil {
		return nil, err
	}
	created, err := scanTemplate(r.pool.QueryRow(ctx, `
		INSERT INTO recurring_templates (user_id, type, amount, category, description, frequency, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+templateColumns,
		template.UserID,
		string(template.Type),
		amount,
		template.Category,
		template.Description,
		string(template.Frequency),
		timeToPgDate(template.StartDate),
		timePtrToPgDate(template.EndDate),
	))
	if err != nil {
		return nil, storageErr("create recurring template", err, nil)
	}
	return created, nil
}

// GetByID retrieves one of the user's templates
func (r *RecurringTemplateRepository) GetByID(ctx context.Context, userID int32, id int32) (*domain.RecurringTemplate, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, storageErr("get recurring template", err, domain.ErrTemplateNotFound)
	}
	return t, nil
}

// ListByUser retrieves all templates of a user
func (r *RecurringTemplateRepository) ListByUser(ctx context.Context, userID int32) ([]*domain.RecurringTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("list recurring templates", err, nil)
	}
	result, err := collectTemplates(rows)
	if err != nil {
		return nil, storageErr("list recurring templates", err, nil)
	}
	return result, nil
}

// ListStartedBy returns templates whose start date is on or before asOf,
// optionally restricted to one user
func (r *RecurringTemplateRepository) ListStartedBy(ctx context.Context, asOf time.Time, userID *int32) ([]*domain.RecurringTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+` FROM recurring_templates
		WHERE start_date <= $1 AND ($2::int IS NULL OR user_id = $2)
		ORDER BY id`,
		timeToPgDate(asOf), int32PtrToPgInt4(userID))
	if err != nil {
		return nil, storageErr("list started templates", err, nil)
	}
	result, err := collectTemplates(rows)
	if err != nil {
		return nil, storageErr("list started templates", err, nil)
	}
	return result, nil
}

// Update replaces the editable fields of one of the user's templates
func (r *RecurringTemplateRepository) Update(ctx context.Context, userID int32, id int32, input *domain.RecurringTemplateInput) (*domain.RecurringTemplate, error) {
	amount, err := decimalToPgNumeric(input.Amount)
	if err != nil {
		return nil, err
	}
	t, err := scanTemplate(r.pool.QueryRow(ctx, `
		UPDATE recurring_templates
		SET type = $3, amount = $4, category = $5, description = $6, frequency = $7,
		    start_date = $8, end_date = $9, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+templateColumns,
		id, userID,
		string(input.Type),
		amount,
		input.Category,
		input.Description,
		string(input.Frequency),
		timeToPgDate(input.StartDate),
		timePtrToPgDate(input.EndDate),
	))
	if err != nil {
		return nil, storageErr("update recurring template", err, domain.ErrTemplateNotFound)
	}
	return t, nil
}

// Delete removes one of the user's templates. Materialized transactions are kept.
func (r *RecurringTemplateRepository) Delete(ctx context.Context, userID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recurring_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return storageErr("delete recurring template", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}
