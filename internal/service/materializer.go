package service

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// DefaultMaxCatchUp bounds a catch-up loop when no limit is configured
const DefaultMaxCatchUp = 366

// CatchUpStrategy decides how many overdue occurrences of one template a
// single materialization run may create
type CatchUpStrategy interface {
	MaxOccurrences() int
}

// SingleOccurrence materializes at most one occurrence per template per run,
// even when several periods are overdue
type SingleOccurrence struct{}

func (SingleOccurrence) MaxOccurrences() int { return 1 }

// CatchUpLoop materializes every overdue occurrence up to Limit per run
type CatchUpLoop struct {
	Limit int
}

func (c CatchUpLoop) MaxOccurrences() int {
	if c.Limit <= 0 {
		return DefaultMaxCatchUp
	}
	return c.Limit
}

// MaterializeResult summarizes one materialization run
type MaterializeResult struct {
	Created      int                   `json:"created"`
	Existing     int                   `json:"existing"`
	Skipped      int                   `json:"skipped"`
	Failed       int                   `json:"failed"`
	Transactions []*domain.Transaction `json:"transactions"`
}

func newMaterializeResult() *MaterializeResult {
	return &MaterializeResult{Transactions: make([]*domain.Transaction, 0)}
}

// Materializer turns due template occurrences into transactions exactly once
type Materializer struct {
	templateRepo domain.RecurringTemplateRepository
	store        domain.OccurrenceStore
	engine       *RecurrenceEngine
	strategy     CatchUpStrategy
	publisher    websocket.EventPublisher
	logger       zerolog.Logger
	now          func() time.Time
}

// NewMaterializer creates a Materializer using the single-occurrence strategy
func NewMaterializer(
	templateRepo domain.RecurringTemplateRepository,
	store domain.OccurrenceStore,
	engine *RecurrenceEngine,
	logger zerolog.Logger,
) *Materializer {
	return &Materializer{
		templateRepo: templateRepo,
		store:        store,
		engine:       engine,
		strategy:     SingleOccurrence{},
		logger:       logger.With().Str("component", "materializer").Logger(),
		now:          time.Now,
	}
}

// SetCatchUpStrategy replaces the catch-up strategy
func (m *Materializer) SetCatchUpStrategy(strategy CatchUpStrategy) {
	m.strategy = strategy
}

// SetEventPublisher sets the event publisher for realtime updates
func (m *Materializer) SetEventPublisher(publisher websocket.EventPublisher) {
	m.publisher = publisher
}

// SetClock replaces the clock used to decide which occurrences are due
func (m *Materializer) SetClock(now func() time.Time) {
	m.now = now
}

// MaterializeDue materializes everything due today, for one user or for all
// users when userID is nil
func (m *Materializer) MaterializeDue(ctx context.Context, userID *int32) (*MaterializeResult, error) {
	asOf := util.TruncateToDate(m.now())

	templates, err := m.templateRepo.ListStartedBy(ctx, asOf, userID)
	if err != nil {
		return nil, err
	}

	result := m.Materialize(ctx, templates, asOf)
	m.publishResult(result)
	return result, nil
}

// Materialize creates the due occurrences of templates as of asOf.
// A failing template is logged and counted; it never stops the others.
func (m *Materializer) Materialize(ctx context.Context, templates []*domain.RecurringTemplate, asOf time.Time) *MaterializeResult {
	asOf = util.TruncateToDate(asOf)
	result := newMaterializeResult()

	for _, template := range templates {
		if ctx.Err() != nil {
			m.logger.Info().Msg("Context cancelled, stopping materialization")
			break
		}
		m.materializeTemplate(ctx, template, asOf, result)
	}

	return result
}

func (m *Materializer) materializeTemplate(ctx context.Context, template *domain.RecurringTemplate, asOf time.Time, result *MaterializeResult) {
	log := m.logger.With().
		Int32("template_id", template.ID).
		Int32("user_id", template.UserID).
		Str("frequency", string(template.Frequency)).
		Logger()

	if err := template.ValidateDates(); err != nil {
		log.Warn().Err(err).Msg("Skipping template with invalid dates")
		result.Skipped++
		return
	}
	if template.StartDate.After(asOf) {
		result.Skipped++
		return
	}

	anchor := template.GenerationAnchor()
	produced := 0
	for i := 0; i < m.strategy.MaxOccurrences(); i++ {
		next, err := m.engine.NextAfter(template.Frequency, anchor)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping template with unknown frequency")
			result.Skipped++
			return
		}
		if next.After(asOf) || (template.EndDate != nil && next.After(util.TruncateToDate(*template.EndDate))) {
			break
		}

		created, err := m.materializeOccurrence(ctx, template, next)
		if err != nil {
			log.Error().Err(err).Str("date", util.FormatDate(next)).Msg("Failed to materialize occurrence")
			result.Failed++
			return
		}
		if created != nil {
			result.Created++
			result.Transactions = append(result.Transactions, created)
		} else {
			result.Existing++
		}

		anchor = next
		advanced := next
		template.LastGeneratedDate = &advanced
		produced++
	}

	if produced == 0 {
		result.Skipped++
		return
	}
	log.Debug().Int("occurrences", produced).Msg("Materialized template")
}

// materializeOccurrence runs the idempotency check, the insert and the
// template update as one unit. It returns nil when the occurrence already existed.
func (m *Materializer) materializeOccurrence(ctx context.Context, template *domain.RecurringTemplate, date time.Time) (*domain.Transaction, error) {
	description := domain.RecurringDescription(template.Description, template.ID)
	key := domain.OccurrenceKey{
		UserID:            template.UserID,
		TemplateID:        template.ID,
		Type:              template.Type,
		Amount:            template.Amount,
		Category:          template.Category,
		Date:              date,
		DescriptionPrefix: description,
	}

	var created *domain.Transaction
	err := m.store.WithinOccurrenceTx(ctx, func(tx domain.OccurrenceTx) error {
		exists, err := tx.OccurrenceExists(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			templateID := template.ID
			created, err = tx.CreateTransaction(ctx, &domain.Transaction{
				UserID:          template.UserID,
				Type:            template.Type,
				Amount:          template.Amount,
				Category:        template.Category,
				Description:     description,
				TransactionDate: date,
				TemplateID:      &templateID,
			})
			if err != nil {
				return err
			}
		}
		// Advances even when the row already exists (legacy description match or
		// a lost race) so the template never re-checks the same date.
		// See the last_generated_date decision in DESIGN.md.
		return tx.AdvanceLastGenerated(ctx, template.ID, date)
	})
	if err != nil {
		var storageErr *domain.StorageError
		if !errors.As(err, &storageErr) {
			err = domain.NewStorageError("materialize occurrence", err)
		}
		return nil, err
	}
	return created, nil
}

func (m *Materializer) publishResult(result *MaterializeResult) {
	if m.publisher == nil || len(result.Transactions) == 0 {
		return
	}

	perUser := make(map[int32]int)
	for _, txn := range result.Transactions {
		m.publisher.Publish(txn.UserID, websocket.TransactionCreated(txn))
		perUser[txn.UserID]++
	}
	for userID, count := range perUser {
		m.publisher.Publish(userID, websocket.MaterializationCompleted(map[string]interface{}{
			"created": count,
		}))
	}
}
