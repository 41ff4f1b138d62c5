package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RecurringTemplateHandler handles recurring template HTTP requests
type RecurringTemplateHandler struct {
	service *service.RecurringTemplateService
}

// NewRecurringTemplateHandler creates a new RecurringTemplateHandler
func NewRecurringTemplateHandler(service *service.RecurringTemplateService) *RecurringTemplateHandler {
	return &RecurringTemplateHandler{service: service}
}

// TemplateRequest represents the create and update recurring template request body
type TemplateRequest struct {
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
}

// TemplateResponse represents a recurring template in API responses
type TemplateResponse struct {
	ID                int32   `json:"id"`
	UserID            int32   `json:"userId"`
	Type              string  `json:"type"`
	Amount            string  `json:"amount"`
	Category          string  `json:"category"`
	Description       string  `json:"description"`
	Frequency         string  `json:"frequency"`
	StartDate         string  `json:"startDate"`
	EndDate           *string `json:"endDate,omitempty"`
	LastGeneratedDate *string `json:"lastGeneratedDate,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toTemplateResponse(t *domain.RecurringTemplate) TemplateResponse {
	return TemplateResponse{
		ID:                t.ID,
		UserID:            t.UserID,
		Type:              string(t.Type),
		Amount:            t.Amount.StringFixed(2),
		Category:          t.Category,
		Description:       t.Description,
		Frequency:         string(t.Frequency),
		StartDate:         t.StartDate.Format(dateLayout),
		EndDate:           formatDatePtr(t.EndDate),
		LastGeneratedDate: formatDatePtr(t.LastGeneratedDate),
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         t.UpdatedAt.Format(time.RFC3339),
	}
}

func parseTemplateRequest(req *TemplateRequest) (*domain.RecurringTemplateInput, []ValidationError) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, []ValidationError{{Field: "amount", Message: "Must be a valid decimal number"}}
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, []ValidationError{{Field: "startDate", Message: "Must be in YYYY-MM-DD format"}}
	}

	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, []ValidationError{{Field: "endDate", Message: "Must be in YYYY-MM-DD format"}}
		}
		endDate = &parsed
	}

	return &domain.RecurringTemplateInput{
		Type:        domain.TransactionType(req.Type),
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
		Frequency:   domain.Frequency(req.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
	}, nil
}

// CreateTemplate godoc
// @Summary Create a recurring template
// @Description Creates the template and materializes any occurrence already due
// @Tags recurring-templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TemplateRequest true "Template"
// @Success 201 {object} TemplateResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /recurring-templates [post]
func (h *RecurringTemplateHandler) CreateTemplate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TemplateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, problems := parseTemplateRequest(&req)
	if problems != nil {
		return NewValidationError(c, "Validation failed", problems)
	}

	template, err := h.service.CreateTemplate(c.Request().Context(), userID, *input)
	if err != nil {
		return respondServiceError(c, err, "create recurring template")
	}

	log.Info().Int32("user_id", userID).Int32("template_id", template.ID).Str("frequency", string(template.Frequency)).Msg("Recurring template created")

	return c.JSON(http.StatusCreated, toTemplateResponse(template))
}

// ListTemplates godoc
// @Summary List recurring templates
// @Tags recurring-templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TemplateResponse
// @Failure 401 {object} ProblemDetails
// @Router /recurring-templates [get]
func (h *RecurringTemplateHandler) ListTemplates(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	templates, err := h.service.ListTemplates(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "list recurring templates")
	}

	response := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		response = append(response, toTemplateResponse(t))
	}
	return c.JSON(http.StatusOK, response)
}

// GetTemplate godoc
// @Summary Get a recurring template
// @Tags recurring-templates
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 200 {object} TemplateResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /recurring-templates/{id} [get]
func (h *RecurringTemplateHandler) GetTemplate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	template, err := h.service.GetTemplate(c.Request().Context(), userID, id)
	if err != nil {
		return respondServiceError(c, err, "get recurring template")
	}
	return c.JSON(http.StatusOK, toTemplateResponse(template))
}

// UpdateTemplate godoc
// @Summary Update a recurring template
// @Tags recurring-templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Param request body TemplateRequest true "Template"
// @Success 200 {object} TemplateResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /recurring-templates/{id} [put]
func (h *RecurringTemplateHandler) UpdateTemplate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	var req TemplateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, problems := parseTemplateRequest(&req)
	if problems != nil {
		return NewValidationError(c, "Validation failed", problems)
	}

	template, err := h.service.UpdateTemplate(c.Request().Context(), userID, id, *input)
	if err != nil {
		return respondServiceError(c, err, "update recurring template")
	}

	log.Info().Int32("user_id", userID).Int32("template_id", id).Msg("Recurring template updated")

	return c.JSON(http.StatusOK, toTemplateResponse(template))
}

// DeleteTemplate godoc
// @Summary Delete a recurring template
// @Description Generated transactions are kept
// @Tags recurring-templates
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 204 "No Content"
// @Failure 404 {object} ProblemDetails
// @Router /recurring-templates/{id} [delete]
func (h *RecurringTemplateHandler) DeleteTemplate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	if err := h.service.DeleteTemplate(c.Request().Context(), userID, id); err != nil {
		return respondServiceError(c, err, "delete recurring template")
	}

	log.Info().Int32("user_id", userID).Int32("template_id", id).Msg("Recurring template deleted")

	return c.NoContent(http.StatusNoContent)
}

// MaterializeResponse reports an on-demand materialization run
type MaterializeResponse struct {
	Created      int                   `json:"created"`
	Existing     int                   `json:"existing"`
	Skipped      int                   `json:"skipped"`
	Failed       int                   `json:"failed"`
	Transactions []TransactionResponse `json:"transactions"`
}

// Materialize godoc
// @Summary Materialize due recurring transactions
// @Description Generates the due occurrences of the caller's templates. Safe to repeat.
// @Tags recurring-templates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MaterializeResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /recurring-templates/materialize [post]
func (h *RecurringTemplateHandler) Materialize(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	result, err := h.service.MaterializeNow(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "materialize recurring transactions")
	}

	log.Info().Int32("user_id", userID).Int("created", result.Created).Int("failed", result.Failed).Msg("On-demand materialization finished")

	transactions := make([]TransactionResponse, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		transactions = append(transactions, toTransactionResponse(t))
	}
	return c.JSON(http.StatusOK, MaterializeResponse{
		Created:      result.Created,
		Existing:     result.Existing,
		Skipped:      result.Skipped,
		Failed:       result.Failed,
		Transactions: transactions,
	})
}
