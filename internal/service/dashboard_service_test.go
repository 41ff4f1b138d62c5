package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboardFixture struct {
	service      *DashboardService
	templates    *testutil.MockRecurringTemplateRepository
	transactions *testutil.MockTransactionRepository
	bills        *testutil.MockBillRepository
	users        *testutil.MockUserRepository
}

func setupDashboardService(t *testing.T, now time.Time) *dashboardFixture {
	t.Helper()
	clock := testutil.FixedClock(now)
	users := setupUsers()
	shares := NewShareService(testutil.NewMockShareRepository(), users, nil)
	templates := testutil.NewMockRecurringTemplateRepository()
	transactions := testutil.NewMockTransactionRepository()
	summaryRepo := testutil.NewMockSummaryRepository(transactions)
	billRepo := testutil.NewMockBillRepository()

	projections := NewProjectionService(templates, summaryRepo, NewRecurrenceEngine(), 0, zerolog.Nop())
	projections.SetClock(clock)
	bills := NewBillService(billRepo)
	bills.SetClock(clock)

	service := NewDashboardService(NewSummaryService(summaryRepo, shares), projections, bills, NewProfileService(users))
	service.SetClock(clock)
	return &dashboardFixture{
		service:      service,
		templates:    templates,
		transactions: transactions,
		bills:        billRepo,
		users:        users,
	}
}

func TestDashboard_DefaultMonths(t *testing.T) {
	f := setupDashboardService(t, time.Date(2024, 12, 15, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12", f.service.CurrentMonth())
	assert.Equal(t, "2025-01", f.service.NextMonth())
}

func TestDashboard_GetProjection(t *testing.T) {
	f := setupDashboardService(t, d(2024, 3, 10))
	salary := rentTemplate(alice, domain.FrequencyMonthly, d(2024, 1, 1))
	salary.Type = domain.TransactionTypeIncome
	salary.Amount = dec(500)
	f.templates.AddTemplate(salary)
	f.templates.AddTemplate(rentTemplate(alice, domain.FrequencyMonthly, d(2024, 1, 1)))

	projection, err := f.service.GetProjection(context.Background(), alice, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-04", projection.Month)
	assert.True(t, dec(-500).Equal(projection.ProjectedNet))
	assert.True(t, projection.Shortfall)

	projection, err = f.service.GetProjection(context.Background(), alice, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, "2024-06", projection.Month)
}

func TestDashboard_GetOverview(t *testing.T) {
	f := setupDashboardService(t, d(2024, 3, 10))
	addExpense(f.transactions, alice, "Food", 60, d(2024, 3, 2))
	f.bills.AddBill(&domain.Bill{UserID: alice, Description: "Water", Amount: dec(30), DueDate: d(2024, 3, 20)})
	f.bills.AddBill(&domain.Bill{UserID: alice, Description: "Insurance", Amount: dec(300), DueDate: d(2024, 5, 20)})
	_, err := f.users.UpdatePreferences(context.Background(), alice, domain.UserPreferences{Currency: "EUR"})
	require.NoError(t, err)

	overview, err := f.service.GetOverview(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", overview.Summary.Month)
	assert.True(t, dec(60).Equal(overview.Summary.TotalExpenses))
	assert.Equal(t, "2024-04", overview.Projection.Month)
	assert.False(t, overview.Projection.Shortfall)
	require.Len(t, overview.UpcomingBills, 1)
	assert.Equal(t, "Water", overview.UpcomingBills[0].Description)
	assert.Equal(t, "EUR", overview.Preferences.Currency)
	assert.Equal(t, "€", overview.CurrencySymbol)
}

func TestDashboard_GetOverview_BillFailureIsNotFatal(t *testing.T) {
	f := setupDashboardService(t, d(2024, 3, 10))
	f.bills.ListErr = testutil.ErrMock

	overview, err := f.service.GetOverview(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, overview.UpcomingBills)
}
