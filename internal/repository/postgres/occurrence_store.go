package postgres

import (
	"context"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OccurrenceStore implements domain.OccurrenceStore. Each unit of work runs in
// its own database transaction.
type OccurrenceStore struct {
	pool *pgxpool.Pool
}

// NewOccurrenceStore creates a new OccurrenceStore
func NewOccurrenceStore(pool *pgxpool.Pool) *OccurrenceStore {
	return &OccurrenceStore{pool: pool}
}

// WithinOccurrenceTx runs fn inside a transaction, committing when fn returns nil
func (s *OccurrenceStore) WithinOccurrenceTx(ctx context.Context, fn func(tx domain.OccurrenceTx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&occurrenceTx{q: tx})
	})
}

type occurrenceTx struct {
	q querier
}

// OccurrenceExists matches on the template link or, for rows written before the
// link existed, on the recurring description marker
func (t *occurrenceTx) OccurrenceExists(ctx context.Context, key domain.OccurrenceKey) (bool, error) {
	amount, err := decimalToPgNumeric(key.Amount)
	if err != nil {
		return false, err
	}
	var exists bool
	err = t.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND type = $2 AND amount = $3 AND category = $4 AND transaction_date = $5
			  AND (template_id = $6 OR description LIKE $7::text || '%')
		)`,
		key.UserID, string(key.Type), amount, key.Category, timeToPgDate(key.Date),
		key.TemplateID, escapeLike(key.DescriptionPrefix),
	).Scan(&exists)
	if err != nil {
		return false, storageErr("check occurrence", err, nil)
	}
	return exists, nil
}

// CreateTransaction inserts a materialized occurrence. A concurrent insert of
// the same occurrence surfaces as ErrAlreadyExists.
func (t *occurrenceTx) CreateTransaction(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	created, err := insertTransaction(ctx, t.q, transaction)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, storageErr("create occurrence", err, nil)
	}
	return created, nil
}

// AdvanceLastGenerated records the latest materialized date of a template
func (t *occurrenceTx) AdvanceLastGenerated(ctx context.Context, templateID int32, date time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE recurring_templates SET last_generated_date = $2, updated_at = NOW()
		WHERE id = $1`,
		templateID, timeToPgDate(date))
	if err != nil {
		return storageErr("advance last generated date", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}
