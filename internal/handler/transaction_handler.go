package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents the create and update transaction request body
type TransactionRequest struct {
	UserID      *int32  `json:"userId,omitempty"`
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        *string `json:"date,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              int32  `json:"id"`
	UserID          int32  `json:"userId"`
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	TransactionDate string `json:"transactionDate"`
	TemplateID      *int32 `json:"templateId,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// PaginatedTransactionsResponse represents paginated transactions in API responses
type PaginatedTransactionsResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		Type:            string(t.Type),
		Amount:          t.Amount.StringFixed(2),
		Category:        t.Category,
		Description:     t.Description,
		TransactionDate: t.TransactionDate.Format(dateLayout),
		TemplateID:      t.TemplateID,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
}

// parseTransactionRequest parses the amount and date of req. It returns a
// non-nil validation message list when the request is malformed.
func parseTransactionRequest(req *TransactionRequest) (decimal.Decimal, *time.Time, []ValidationError) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return decimal.Zero, nil, []ValidationError{{Field: "amount", Message: "Must be a valid decimal number"}}
	}

	if req.Date == nil || *req.Date == "" {
		return amount, nil, nil
	}
	parsed, err := time.Parse(dateLayout, *req.Date)
	if err != nil {
		return decimal.Zero, nil, []ValidationError{{Field: "date", Message: "Must be in YYYY-MM-DD format"}}
	}
	return amount, &parsed, nil
}

// CreateTransaction handles POST /transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, date, problems := parseTransactionRequest(&req)
	if problems != nil {
		return NewValidationError(c, "Validation failed", problems)
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, service.CreateTransactionInput{
		OwnerID:         req.UserID,
		Type:            domain.TransactionType(req.Type),
		Amount:          amount,
		Category:        req.Category,
		Description:     req.Description,
		TransactionDate: date,
	})
	if err != nil {
		return respondServiceError(c, err, "create transaction")
	}

	log.Info().Int32("user_id", userID).Int32("transaction_id", transaction.ID).Msg("Transaction created")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions handles GET /transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	ownerID, ok := parseOptionalUserID(c)
	if !ok {
		return invalidParamError(c, "userId")
	}

	filters := &domain.TransactionFilters{
		Month:      c.QueryParam("month"),
		Search:     c.QueryParam("search"),
		SortBy:     c.QueryParam("sortBy"),
		Descending: strings.EqualFold(c.QueryParam("order"), "desc"),
	}

	if pageStr := c.QueryParam("page"); pageStr != "" {
		page, err := strconv.ParseInt(pageStr, 10, 32)
		if err != nil || page < 1 {
			return NewValidationError(c, "Invalid page (must be positive integer)", nil)
		}
		filters.Page = int32(page)
	}
	if pageSizeStr := c.QueryParam("pageSize"); pageSizeStr != "" {
		pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
		if err != nil || pageSize < 1 {
			return NewValidationError(c, "Invalid pageSize (must be positive integer)", nil)
		}
		filters.PageSize = int32(pageSize)
	}

	result, err := h.transactionService.GetTransactions(c.Request().Context(), userID, ownerID, filters)
	if err != nil {
		return respondServiceError(c, err, "get transactions")
	}

	data := make([]TransactionResponse, 0, len(result.Data))
	for _, t := range result.Data {
		data = append(data, toTransactionResponse(t))
	}

	return c.JSON(http.StatusOK, PaginatedTransactionsResponse{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// GetTransaction handles GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request().Context(), userID, id)
	if err != nil {
		return respondServiceError(c, err, "get transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, date, problems := parseTransactionRequest(&req)
	if problems != nil {
		return NewValidationError(c, "Validation failed", problems)
	}
	if date == nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "date", Message: "Date is required"},
		})
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request().Context(), userID, id, service.UpdateTransactionInput{
		Type:            domain.TransactionType(req.Type),
		Amount:          amount,
		Category:        req.Category,
		Description:     req.Description,
		TransactionDate: *date,
	})
	if err != nil {
		return respondServiceError(c, err, "update transaction")
	}

	log.Info().Int32("user_id", userID).Int32("transaction_id", id).Msg("Transaction updated")

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), userID, id); err != nil {
		return respondServiceError(c, err, "delete transaction")
	}

	log.Info().Int32("user_id", userID).Int32("transaction_id", id).Msg("Transaction deleted")

	return c.NoContent(http.StatusNoContent)
}
