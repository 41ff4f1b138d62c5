package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type materializerFixture struct {
	materializer *Materializer
	templates    *testutil.MockRecurringTemplateRepository
	transactions *testutil.MockTransactionRepository
	store        *testutil.MockOccurrenceStore
}

func setupMaterializer(now time.Time) *materializerFixture {
	templates := testutil.NewMockRecurringTemplateRepository()
	transactions := testutil.NewMockTransactionRepository()
	store := testutil.NewMockOccurrenceStore(transactions, templates)
	m := NewMaterializer(templates, store, NewRecurrenceEngine(), zerolog.Nop())
	m.SetClock(testutil.FixedClock(now))
	return &materializerFixture{
		materializer: m,
		templates:    templates,
		transactions: transactions,
		store:        store,
	}
}

func rentTemplate(userID int32, freq domain.Frequency, start time.Time) *domain.RecurringTemplate {
	return &domain.RecurringTemplate{
		UserID:      userID,
		Type:        domain.TransactionTypeExpense,
		Amount:      decimal.NewFromInt(1000),
		Category:    "Housing",
		Description: "Rent",
		Frequency:   freq,
		StartDate:   start,
	}
}

func TestMaterializeDue_CreatesNextOccurrence(t *testing.T) {
	f := setupMaterializer(time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Transactions, 1)

	txn := result.Transactions[0]
	assert.Equal(t, d(2024, 2, 15), txn.TransactionDate)
	assert.Equal(t, "Rent (Recurring from template ID: 1)", txn.Description)
	assert.Equal(t, int32(1), txn.UserID)
	assert.True(t, decimal.NewFromInt(1000).Equal(txn.Amount))
	assert.Equal(t, "Housing", txn.Category)
	require.NotNil(t, txn.TemplateID)
	assert.Equal(t, tmpl.ID, *txn.TemplateID)

	stored := f.templates.Get(tmpl.ID)
	require.NotNil(t, stored.LastGeneratedDate)
	assert.Equal(t, d(2024, 2, 15), *stored.LastGeneratedDate)
}

func TestMaterializeDue_OneOccurrencePerRun(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	ctx := context.Background()

	first, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	second, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	third, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 1, second.Created)
	assert.Equal(t, 0, third.Created)
	assert.Equal(t, 1, third.Skipped)

	all := f.transactions.All()
	require.Len(t, all, 2)
	assert.Equal(t, d(2024, 2, 15), all[0].TransactionDate)
	assert.Equal(t, d(2024, 3, 15), all[1].TransactionDate)
	assert.Equal(t, d(2024, 3, 15), *f.templates.Get(tmpl.ID).LastGeneratedDate)
}

func TestMaterializeDue_Idempotent(t *testing.T) {
	f := setupMaterializer(d(2024, 2, 20))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	ctx := context.Background()

	_, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)

	// Simulate a crash after the insert but before the template update
	f.templates.Templates[tmpl.ID].LastGeneratedDate = nil

	result, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Existing)
	assert.Len(t, f.transactions.All(), 1)
	assert.Equal(t, d(2024, 2, 15), *f.templates.Get(tmpl.ID).LastGeneratedDate)
}

func TestMaterializeDue_ExistingByDescriptionOnly(t *testing.T) {
	f := setupMaterializer(d(2024, 2, 20))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.transactions.AddTransaction(&domain.Transaction{
		UserID:          1,
		Type:            domain.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(1000),
		Category:        "Housing",
		Description:     "Rent (Recurring from template ID: 1) edited",
		TransactionDate: d(2024, 2, 15),
	})

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Existing)
	assert.Len(t, f.transactions.All(), 1)
	assert.Equal(t, d(2024, 2, 15), *f.templates.Get(tmpl.ID).LastGeneratedDate)
}

func TestMaterializeDue_ExistingOccurrenceDoesNotStall(t *testing.T) {
	f := setupMaterializer(d(2024, 4, 20))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.transactions.AddTransaction(&domain.Transaction{
		UserID:          1,
		Type:            domain.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(1000),
		Category:        "Housing",
		Description:     "Rent (Recurring from template ID: 1)",
		TransactionDate: d(2024, 2, 15),
	})
	ctx := context.Background()

	first, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Existing)
	assert.Equal(t, 0, first.Created)

	second, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Created)
	assert.Equal(t, d(2024, 3, 15), *f.templates.Get(tmpl.ID).LastGeneratedDate)
	assert.Len(t, f.transactions.All(), 2)
}

func TestMaterializeDue_DifferentAmountIsNotDuplicate(t *testing.T) {
	f := setupMaterializer(d(2024, 2, 20))
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.transactions.AddTransaction(&domain.Transaction{
		UserID:          1,
		Type:            domain.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(999),
		Category:        "Housing",
		Description:     "Rent (Recurring from template ID: 1)",
		TransactionDate: d(2024, 2, 15),
	})

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Len(t, f.transactions.All(), 2)
}

func TestMaterializeDue_CatchUpLoop(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 5))
	f.materializer.SetCatchUpStrategy(CatchUpLoop{})
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyDaily, d(2024, 3, 1)))
	ctx := context.Background()

	result, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)

	dates := make([]time.Time, 0)
	for _, txn := range f.transactions.All() {
		dates = append(dates, txn.TransactionDate)
	}
	assert.Equal(t, []time.Time{d(2024, 3, 2), d(2024, 3, 3), d(2024, 3, 4), d(2024, 3, 5)}, dates)
	assert.Equal(t, d(2024, 3, 5), *f.templates.Get(tmpl.ID).LastGeneratedDate)
	assert.Equal(t, 4, f.store.Units)

	again, err := f.materializer.MaterializeDue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Len(t, f.transactions.All(), 4)
}

func TestMaterializeDue_CatchUpLoopLimit(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 31))
	f.materializer.SetCatchUpStrategy(CatchUpLoop{Limit: 3})
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyDaily, d(2024, 3, 1)))

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
}

func TestCatchUpStrategies(t *testing.T) {
	assert.Equal(t, 1, SingleOccurrence{}.MaxOccurrences())
	assert.Equal(t, DefaultMaxCatchUp, CatchUpLoop{}.MaxOccurrences())
	assert.Equal(t, 12, CatchUpLoop{Limit: 12}.MaxOccurrences())
}

func TestMaterializeDue_RespectsEndDate(t *testing.T) {
	f := setupMaterializer(d(2024, 6, 1))
	f.materializer.SetCatchUpStrategy(CatchUpLoop{})
	tmpl := rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15))
	tmpl.EndDate = testutil.TimePtr(d(2024, 3, 15))
	f.templates.AddTemplate(tmpl)

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created, "occurrence on the end date is included")

	all := f.transactions.All()
	require.Len(t, all, 2)
	assert.Equal(t, d(2024, 3, 15), all[1].TransactionDate)
}

func TestMaterializeDue_EndDateBeforeFirstOccurrence(t *testing.T) {
	f := setupMaterializer(d(2024, 6, 1))
	tmpl := rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15))
	tmpl.EndDate = testutil.TimePtr(d(2024, 2, 10))
	f.templates.AddTemplate(tmpl)

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, f.transactions.All())
}

func TestMaterializeDue_StartDateNotMaterialized(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 15))
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 3, 15)))

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, f.transactions.All())
}

func TestMaterialize_FutureTemplateSkipped(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 15))
	tmpl := rentTemplate(1, domain.FrequencyMonthly, d(2024, 4, 1))
	tmpl.ID = 7

	result := f.materializer.Materialize(context.Background(), []*domain.RecurringTemplate{tmpl}, d(2024, 3, 15))
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, f.store.Units)
}

func TestMaterializeDue_FailureIsolation(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	failing := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	healthy := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 10)))
	f.store.FailCreateFor[failing.ID] = true

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Created)

	assert.Nil(t, f.templates.Get(failing.ID).LastGeneratedDate)
	assert.Equal(t, d(2024, 2, 10), *f.templates.Get(healthy.ID).LastGeneratedDate)
}

func TestMaterializeDue_AdvanceFailureRollsBackInsert(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.store.FailAdvance = true

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, f.transactions.All())
	assert.Nil(t, f.templates.Get(tmpl.ID).LastGeneratedDate)
}

func TestMaterializeDue_SkipsInvalidTemplates(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))

	unknown := rentTemplate(1, "quarterly", d(2024, 1, 1))
	f.templates.AddTemplate(unknown)

	backwards := rentTemplate(1, domain.FrequencyMonthly, d(2024, 2, 1))
	backwards.EndDate = testutil.TimePtr(d(2024, 1, 1))
	f.templates.AddTemplate(backwards)

	staleAnchor := rentTemplate(1, domain.FrequencyMonthly, d(2024, 2, 1))
	staleAnchor.LastGeneratedDate = testutil.TimePtr(d(2024, 1, 1))
	f.templates.AddTemplate(staleAnchor)

	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyWeekly, d(2024, 3, 1)))

	result, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Failed)
}

func TestMaterializeDue_SingleUser(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.templates.AddTemplate(rentTemplate(2, domain.FrequencyMonthly, d(2024, 1, 15)))

	result, err := f.materializer.MaterializeDue(context.Background(), testutil.Int32Ptr(2))
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	assert.Equal(t, int32(2), result.Transactions[0].UserID)
}

func TestMaterializeDue_ListError(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	f.templates.ListErr = testutil.ErrMock

	_, err := f.materializer.MaterializeDue(context.Background(), nil)
	assert.ErrorIs(t, err, testutil.ErrMock)
}

func TestMaterialize_StopsOnCancelledContext(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	tmpl := f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.materializer.Materialize(ctx, []*domain.RecurringTemplate{tmpl}, d(2024, 3, 20))
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, f.store.Units)
}

func TestMaterializeDue_PublishesEvents(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	publisher := testutil.NewMockEventPublisher()
	f.materializer.SetEventPublisher(publisher)
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 10)))

	_, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"transaction.created",
		"transaction.created",
		"materialization.completed",
	}, publisher.Types())
	last := publisher.Events[2]
	assert.Equal(t, int32(1), last.UserID)
	assert.Equal(t, map[string]interface{}{"created": 2}, last.Event.Payload)
}

func TestMaterializeDue_NoEventsWhenNothingCreated(t *testing.T) {
	f := setupMaterializer(d(2024, 1, 20))
	publisher := testutil.NewMockEventPublisher()
	f.materializer.SetEventPublisher(publisher)
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))

	_, err := f.materializer.MaterializeDue(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, publisher.Events)
}
