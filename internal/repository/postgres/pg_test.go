package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, v := range []string{"0", "1250.75", "0.01", "99999999.99"} {
		num, err := decimalToPgNumeric(decimal.RequireFromString(v))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString(v).Equal(pgNumericToDecimal(num)), v)
	}
}

func TestMonthBounds(t *testing.T) {
	from, to, err := monthBounds("2024-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), from.Time)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), to.Time)

	_, _, err = monthBounds("2024-13")
	var dateErr *domain.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `Rent 100\% \_ok\\`, escapeLike(`Rent 100% _ok\`))
	assert.Equal(t, "Netflix (Recurring from template ID: 4)", escapeLike("Netflix (Recurring from template ID: 4)"))
}

func TestStorageErr(t *testing.T) {
	assert.Nil(t, storageErr("op", nil, domain.ErrBillNotFound))
	assert.Equal(t, domain.ErrBillNotFound, storageErr("get bill", pgx.ErrNoRows, domain.ErrBillNotFound))

	err := storageErr("list", errors.New("connection reset"), nil)
	var storage *domain.StorageError
	require.ErrorAs(t, err, &storage)
	assert.Equal(t, "list", storage.Op)

	err = storageErr("create", pgx.ErrNoRows, nil)
	assert.ErrorAs(t, err, &storage)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestNullableConversions(t *testing.T) {
	assert.Nil(t, pgTextToStringPtr(stringPtrToPgText(nil)))
	name := "Alice"
	assert.Equal(t, "Alice", *pgTextToStringPtr(stringPtrToPgText(&name)))

	assert.Nil(t, pgDateToTimePtr(timePtrToPgDate(nil)))
	due := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, due, *pgDateToTimePtr(timePtrToPgDate(&due)))

	assert.Nil(t, pgInt4ToInt32Ptr(int32PtrToPgInt4(nil)))
	id := int32(7)
	assert.Equal(t, int32(7), *pgInt4ToInt32Ptr(int32PtrToPgInt4(&id)))
}
