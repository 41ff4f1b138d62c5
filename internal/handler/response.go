package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://ledgerly.app/errors/validation"
	ErrorTypeNotFound     = "https://ledgerly.app/errors/not-found"
	ErrorTypeUnauthorized = "https://ledgerly.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://ledgerly.app/errors/forbidden"
	ErrorTypeConflict     = "https://ledgerly.app/errors/conflict"
	ErrorTypeInternal     = "https://ledgerly.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// notFoundErrors maps entity sentinels to their response detail
var notFoundErrors = map[error]string{
	domain.ErrUserNotFound:        "User not found",
	domain.ErrTransactionNotFound: "Transaction not found",
	domain.ErrTemplateNotFound:    "Recurring template not found",
	domain.ErrBillNotFound:        "Bill not found",
	domain.ErrShareNotFound:       "Data share not found",
	domain.ErrNotFound:            "Resource not found",
}

// respondServiceError translates a service error into a problem response.
// Unexpected errors are logged and reported as "Failed to <action>".
func respondServiceError(c echo.Context, err error, action string) error {
	for sentinel, detail := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return NewNotFoundError(c, detail)
		}
	}

	switch {
	case domain.IsValidationError(err):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "You do not have access to this data")
	case errors.Is(err, domain.ErrShareExists), errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Authentication required")
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

// parseIDParam reads a positive int32 path parameter
func parseIDParam(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

// parseOptionalUserID reads the optional userId query parameter
func parseOptionalUserID(c echo.Context) (*int32, bool) {
	raw := c.QueryParam("userId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return nil, false
	}
	userID := int32(id)
	return &userID, true
}

// invalidParamError reports a malformed numeric parameter
func invalidParamError(c echo.Context, name string) error {
	return NewValidationError(c, "Invalid "+name, []ValidationError{
		{Field: name, Message: "Must be a positive integer"},
	})
}
