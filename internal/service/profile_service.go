package service

import (
	"context"
	"strings"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// currencySymbols lists the supported preference currencies
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"CHF": "CHF",
	"CNY": "¥",
	"INR": "₹",
	"BRL": "R$",
	"RUB": "₽",
	"ZAR": "R",
}

// CurrencySymbol returns the display symbol of an ISO currency code, "$" when unknown
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return symbol
	}
	return "$"
}

// Profile is a user together with display-ready preferences
type Profile struct {
	*domain.User
	CurrencySymbol string `json:"currencySymbol"`
}

// ProfileService handles profile-related business logic
type ProfileService struct {
	userRepo domain.UserRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo domain.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID int32) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, CurrencySymbol: CurrencySymbol(user.Currency)}, nil
}

// GetPreferences returns the user's display preferences, or the defaults
// when they cannot be loaded
func (s *ProfileService) GetPreferences(ctx context.Context, userID int32) domain.UserPreferences {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int32("user_id", userID).Msg("Falling back to default preferences")
		return domain.DefaultPreferences()
	}
	prefs := domain.UserPreferences{Currency: user.Currency, DarkModeEnabled: user.DarkModeEnabled}
	if prefs.Currency == "" {
		prefs.Currency = domain.DefaultCurrency
	}
	return prefs
}

// UpdatePreferences validates and stores the user's display preferences
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID int32, prefs domain.UserPreferences) (*Profile, error) {
	prefs.Currency = strings.ToUpper(strings.TrimSpace(prefs.Currency))
	if _, ok := currencySymbols[prefs.Currency]; !ok {
		return nil, domain.ErrInvalidCurrency
	}

	user, err := s.userRepo.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, CurrencySymbol: CurrencySymbol(user.Currency)}, nil
}
