package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTemplateService(now time.Time) (*RecurringTemplateService, *materializerFixture, *testutil.MockEventPublisher) {
	f := setupMaterializer(now)
	publisher := testutil.NewMockEventPublisher()
	service := NewRecurringTemplateService(f.templates, f.materializer)
	service.SetEventPublisher(publisher)
	return service, f, publisher
}

func netflixInput(start time.Time) domain.RecurringTemplateInput {
	return domain.RecurringTemplateInput{
		Type:        domain.TransactionTypeExpense,
		Amount:      decimal.NewFromFloat(15.99),
		Category:    " Subscriptions ",
		Description: "Netflix",
		Frequency:   domain.FrequencyMonthly,
		StartDate:   start,
	}
}

func TestCreateTemplate_MaterializesDueOccurrence(t *testing.T) {
	service, f, publisher := setupTemplateService(d(2024, 3, 20))

	created, err := service.CreateTemplate(context.Background(), alice, netflixInput(d(2024, 2, 10)))
	require.NoError(t, err)
	assert.Equal(t, "Subscriptions", created.Category)
	require.NotNil(t, created.LastGeneratedDate)
	assert.Equal(t, d(2024, 3, 10), *created.LastGeneratedDate)

	all := f.transactions.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Netflix (Recurring from template ID: 1)", all[0].Description)
	assert.Equal(t, []string{"recurring.created", "transaction.created", "materialization.completed"}, publisher.Types())
}

func TestCreateTemplate_FutureStartCreatesNothing(t *testing.T) {
	service, f, _ := setupTemplateService(d(2024, 3, 20))

	created, err := service.CreateTemplate(context.Background(), alice, netflixInput(d(2024, 4, 1)))
	require.NoError(t, err)
	assert.Nil(t, created.LastGeneratedDate)
	assert.Empty(t, f.transactions.All())
}

func TestCreateTemplate_Validation(t *testing.T) {
	service, _, _ := setupTemplateService(d(2024, 3, 20))
	ctx := context.Background()

	input := netflixInput(d(2024, 1, 1))
	input.Frequency = "quarterly"
	_, err := service.CreateTemplate(ctx, alice, input)
	var freqErr *domain.UnknownFrequencyError
	assert.ErrorAs(t, err, &freqErr)

	input = netflixInput(time.Time{})
	_, err = service.CreateTemplate(ctx, alice, input)
	var dateErr *domain.InvalidDateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "start_date", dateErr.Field)

	input = netflixInput(d(2024, 3, 1))
	input.EndDate = testutil.TimePtr(d(2024, 2, 1))
	_, err = service.CreateTemplate(ctx, alice, input)
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "end_date", dateErr.Field)

	input = netflixInput(d(2024, 3, 1))
	input.Amount = decimal.Zero
	_, err = service.CreateTemplate(ctx, alice, input)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreateTemplate_AcceptsFrequencyAliases(t *testing.T) {
	service, _, _ := setupTemplateService(d(2024, 3, 20))
	input := netflixInput(d(2024, 4, 1))
	input.Frequency = "Bi-Weekly"

	created, err := service.CreateTemplate(context.Background(), alice, input)
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyBiWeekly, created.Frequency)
}

func TestUpdateTemplate(t *testing.T) {
	service, f, publisher := setupTemplateService(d(2024, 3, 20))
	ctx := context.Background()
	created, err := service.CreateTemplate(ctx, alice, netflixInput(d(2024, 2, 10)))
	require.NoError(t, err)

	input := netflixInput(d(2024, 2, 10))
	input.Amount = decimal.NewFromFloat(17.99)
	updated, err := service.UpdateTemplate(ctx, alice, created.ID, input)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(17.99).Equal(updated.Amount))
	assert.Equal(t, d(2024, 3, 10), *updated.LastGeneratedDate)
	assert.Contains(t, publisher.Types(), "recurring.updated")

	// Materialized history keeps the old amount
	assert.True(t, decimal.NewFromFloat(15.99).Equal(f.transactions.All()[0].Amount))

	_, err = service.UpdateTemplate(ctx, alice, created.ID, netflixInput(d(2024, 4, 1)))
	var dateErr *domain.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)

	_, err = service.UpdateTemplate(ctx, bob, created.ID, input)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestDeleteTemplate_KeepsTransactions(t *testing.T) {
	service, f, publisher := setupTemplateService(d(2024, 3, 20))
	ctx := context.Background()
	created, err := service.CreateTemplate(ctx, alice, netflixInput(d(2024, 2, 10)))
	require.NoError(t, err)

	assert.ErrorIs(t, service.DeleteTemplate(ctx, bob, created.ID), domain.ErrTemplateNotFound)
	require.NoError(t, service.DeleteTemplate(ctx, alice, created.ID))

	_, err = service.GetTemplate(ctx, alice, created.ID)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	assert.Len(t, f.transactions.All(), 1)
	assert.Equal(t, "recurring.deleted", publisher.Types()[len(publisher.Types())-1])
}

func TestListTemplatesAndMaterializeNow(t *testing.T) {
	service, f, _ := setupTemplateService(d(2024, 3, 20))
	ctx := context.Background()
	f.templates.AddTemplate(rentTemplate(alice, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.templates.AddTemplate(rentTemplate(bob, domain.FrequencyMonthly, d(2024, 1, 15)))

	templates, err := service.ListTemplates(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, templates, 1)

	result, err := service.MaterializeNow(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, alice, result.Transactions[0].UserID)
}
