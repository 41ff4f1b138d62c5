package handler

import (
	"net/http"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdatePreferencesRequest represents the update preferences request
type UpdatePreferencesRequest struct {
	Currency        string `json:"currency"`
	DarkModeEnabled bool   `json:"darkModeEnabled"`
}

// GetProfile handles GET /profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	profile, err := h.profileService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "get profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdatePreferences handles PUT /profile/preferences
func (h *ProfileHandler) UpdatePreferences(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	profile, err := h.profileService.UpdatePreferences(c.Request().Context(), userID, domain.UserPreferences{
		Currency:        req.Currency,
		DarkModeEnabled: req.DarkModeEnabled,
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "currency", Message: "Unsupported currency"},
			})
		}
		return respondServiceError(c, err, "update preferences")
	}

	log.Info().Int32("user_id", userID).Str("currency", profile.Currency).Msg("Preferences updated")

	return c.JSON(http.StatusOK, profile)
}
