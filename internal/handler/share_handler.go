package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ShareHandler handles data sharing HTTP requests
type ShareHandler struct {
	shareService *service.ShareService
}

// NewShareHandler creates a new ShareHandler
func NewShareHandler(shareService *service.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

// CreateShareRequest represents the create share request body
type CreateShareRequest struct {
	Email           string `json:"email"`
	PermissionLevel string `json:"permissionLevel"`
}

// UpdateShareRequest represents the update share request body
type UpdateShareRequest struct {
	PermissionLevel string `json:"permissionLevel"`
}

// CreateShare handles POST /shares
func (h *ShareHandler) CreateShare(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateShareRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "email", Message: "Email is required"},
		})
	}

	share, err := h.shareService.CreateShare(c.Request().Context(), userID, email, domain.PermissionLevel(req.PermissionLevel))
	if err != nil {
		return respondServiceError(c, err, "share data")
	}

	log.Info().Int32("owner_id", userID).Int32("shared_with_id", share.SharedWithUserID).Str("permission", string(share.PermissionLevel)).Msg("Data shared")

	return c.JSON(http.StatusCreated, share)
}

// ListShares handles GET /shares
func (h *ShareHandler) ListShares(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	shares, err := h.shareService.ListShares(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "list shares")
	}
	return c.JSON(http.StatusOK, shares)
}

// ListSharedWithMe handles GET /shares/received
func (h *ShareHandler) ListSharedWithMe(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	shares, err := h.shareService.ListSharedWithMe(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "list shares")
	}
	return c.JSON(http.StatusOK, shares)
}

// UpdateShare handles PUT /shares/:id
func (h *ShareHandler) UpdateShare(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	var req UpdateShareRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	share, err := h.shareService.UpdatePermission(c.Request().Context(), userID, id, domain.PermissionLevel(req.PermissionLevel))
	if err != nil {
		return respondServiceError(c, err, "update share")
	}
	return c.JSON(http.StatusOK, share)
}

// DeleteShare handles DELETE /shares/:id
func (h *ShareHandler) DeleteShare(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	if err := h.shareService.DeleteShare(c.Request().Context(), userID, id); err != nil {
		return respondServiceError(c, err, "delete share")
	}

	log.Info().Int32("owner_id", userID).Int32("share_id", id).Msg("Data share revoked")

	return c.NoContent(http.StatusNoContent)
}
