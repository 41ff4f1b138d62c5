package service

import (
	"context"
	"testing"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSummaryService(t *testing.T) (*SummaryService, *testutil.MockTransactionRepository, *ShareService) {
	t.Helper()
	shares, _, _ := setupShareService(t, false)
	transactions := testutil.NewMockTransactionRepository()
	return NewSummaryService(testutil.NewMockSummaryRepository(transactions), shares), transactions, shares
}

func TestGetMonthSummary(t *testing.T) {
	service, transactions, _ := setupSummaryService(t)
	transactions.AddTransaction(&domain.Transaction{UserID: alice, Type: domain.TransactionTypeIncome, Amount: dec(3000), Category: "Salary", TransactionDate: d(2024, 3, 1)})
	addExpense(transactions, alice, "Food", 200, d(2024, 3, 5))
	addExpense(transactions, alice, "Housing", 1000, d(2024, 3, 1))
	addExpense(transactions, alice, "Food", 50, d(2024, 3, 20))
	addExpense(transactions, alice, "Food", 999, d(2024, 4, 1))

	summary, err := service.GetMonthSummary(context.Background(), alice, nil, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Month)
	assert.Equal(t, []int32{alice}, summary.UserIDs)
	assert.True(t, dec(3000).Equal(summary.TotalIncome))
	assert.True(t, dec(1250).Equal(summary.TotalExpenses))
	assert.True(t, dec(1750).Equal(summary.NetBalance))

	require.Len(t, summary.CategoryBreakdown, 2)
	assert.Equal(t, "Housing", summary.CategoryBreakdown[0].Category)
	assert.True(t, dec(250).Equal(summary.CategoryBreakdown[1].Amount))
}

func TestGetMonthSummary_EmptyMonth(t *testing.T) {
	service, _, _ := setupSummaryService(t)

	summary, err := service.GetMonthSummary(context.Background(), alice, nil, "2024-03")
	require.NoError(t, err)
	assert.True(t, summary.TotalIncome.IsZero())
	assert.True(t, summary.NetBalance.IsZero())
	assert.NotNil(t, summary.CategoryBreakdown)
	assert.Empty(t, summary.CategoryBreakdown)
}

func TestGetMonthSummary_SharedData(t *testing.T) {
	service, transactions, shares := setupSummaryService(t)
	ctx := context.Background()
	addExpense(transactions, alice, "Food", 100, d(2024, 3, 5))
	addExpense(transactions, bob, "Food", 40, d(2024, 3, 5))
	_, err := shares.CreateShare(ctx, alice, "bob@example.com", domain.PermissionReadOnly)
	require.NoError(t, err)

	combined, err := service.GetMonthSummary(ctx, bob, nil, "2024-03")
	require.NoError(t, err)
	assert.True(t, dec(140).Equal(combined.TotalExpenses))

	ownerOnly, err := service.GetMonthSummary(ctx, bob, testutil.Int32Ptr(alice), "2024-03")
	require.NoError(t, err)
	assert.True(t, dec(100).Equal(ownerOnly.TotalExpenses))

	_, err = service.GetMonthSummary(ctx, alice, testutil.Int32Ptr(bob), "2024-03")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetMonthSummary_InvalidMonth(t *testing.T) {
	service, _, _ := setupSummaryService(t)

	_, err := service.GetMonthSummary(context.Background(), alice, nil, "03-2024")
	var dateErr *domain.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)
}
