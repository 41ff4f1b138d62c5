package service

import (
	"context"
	"testing"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol("USD"))
	assert.Equal(t, "€", CurrencySymbol("eur"))
	assert.Equal(t, "₹", CurrencySymbol("INR"))
	assert.Equal(t, "$", CurrencySymbol("XYZ"))
	assert.Equal(t, "$", CurrencySymbol(""))
}

func TestGetProfile(t *testing.T) {
	users := setupUsers()
	service := NewProfileService(users)

	profile, err := service.GetProfile(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "$", profile.CurrencySymbol)

	_, err = service.GetProfile(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetPreferences_FallsBackToDefaults(t *testing.T) {
	users := setupUsers()
	service := NewProfileService(users)

	assert.Equal(t, domain.DefaultPreferences(), service.GetPreferences(context.Background(), 99))

	users.GetErr = testutil.ErrMock
	assert.Equal(t, domain.DefaultPreferences(), service.GetPreferences(context.Background(), alice))
}

func TestUpdatePreferences(t *testing.T) {
	users := setupUsers()
	service := NewProfileService(users)
	ctx := context.Background()

	profile, err := service.UpdatePreferences(ctx, alice, domain.UserPreferences{Currency: " gbp ", DarkModeEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, "GBP", profile.Currency)
	assert.Equal(t, "£", profile.CurrencySymbol)
	assert.True(t, profile.DarkModeEnabled)

	prefs := service.GetPreferences(ctx, alice)
	assert.Equal(t, domain.UserPreferences{Currency: "GBP", DarkModeEnabled: true}, prefs)

	_, err = service.UpdatePreferences(ctx, alice, domain.UserPreferences{Currency: "DOGE"})
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
	assert.True(t, domain.IsValidationError(err))
}
