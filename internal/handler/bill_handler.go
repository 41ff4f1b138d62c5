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

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billService *service.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// BillRequest represents the create and update bill request body
type BillRequest struct {
	Description        string  `json:"description"`
	Amount             string  `json:"amount"`
	DueDate            string  `json:"dueDate"`
	Category           *string `json:"category,omitempty"`
	IsPaid             bool    `json:"isPaid"`
	RecurringFrequency string  `json:"recurringFrequency"`
}

// SetPaidRequest represents the mark paid/unpaid request body
type SetPaidRequest struct {
	IsPaid bool `json:"isPaid"`
}

func parseBillRequest(req *BillRequest) (*service.BillInput, []ValidationError) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, []ValidationError{{Field: "amount", Message: "Must be a valid decimal number"}}
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return nil, []ValidationError{{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"}}
	}
	return &service.BillInput{
		Description:        req.Description,
		Amount:             amount,
		DueDate:            dueDate,
		Category:           req.Category,
		IsPaid:             req.IsPaid,
		RecurringFrequency: domain.BillFrequency(strings.ToLower(strings.TrimSpace(req.RecurringFrequency))),
	}, nil
}

// CreateBill handles POST /bills
func (h *BillHandler) CreateBill(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req BillRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, problems := parseBillRequest(&req)
	if problems != nil {
		return NewValidationError(c, "Validation failed", problems)
	}

	bill, err := h.billService.CreateBill(c.Request().Context(), userID, *input)
	if err != nil {
		return respondServiceError(c, err, "create bill")
	}

	log.Info().Int32("user_id", userID).Int32("bill_id", bill.ID).Msg("Bill created")

	return c.JSON(http.StatusCreated, bill)
}

// ListBills handles GET /bills
func (h *BillHandler) ListBills(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	bills, err := h.billService.ListBills(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "list bills")
	}
	return c.JSON(http.StatusOK, bills)
}

// UpcomingBills handles GET /bills/upcoming?days=N
func (h *BillHandler) UpcomingBills(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	days := domain.DefaultUpcomingBillDays
	if daysStr := c.QueryParam("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 0 {
			return NewValidationError(c, "Invalid days (must be a non-negative integer)", nil)
		}
		days = parsed
	}

	bills, err := h.billService.UpcomingBills(c.Request().Context(), userID, days)
	if err != nil {
		return respondServiceError(c, err, "list upcoming bills")
	}
	return c.JSON(http.StatusOK, bills)
}

// GetBill handles GET /bills/:id
func (h *BillHandler) GetBill(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	bill, err := h.billService.GetBill(c.Request().Context(), userID, id)
	if err != nil {
		return respondServiceError(c, err, "get bill")
	}
	return c.JSON(http.StatusOK, bill)
}

// UpdateBill handles PUT /bills/:id
func (h *BillHandler) UpdateBill(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	var req BillRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, problems := parseBillRequest(&req)
	if problems != nil {
		return NewValidationError(c, "Validation failed", problems)
	}

	bill, err := h.billService.UpdateBill(c.Request().Context(), userID, id, *input)
	if err != nil {
		return respondServiceError(c, err, "update bill")
	}
	return c.JSON(http.StatusOK, bill)
}

// SetPaid handles PATCH /bills/:id/paid
func (h *BillHandler) SetPaid(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	var req SetPaidRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	bill, err := h.billService.SetPaid(c.Request().Context(), userID, id, req.IsPaid)
	if err != nil {
		return respondServiceError(c, err, "update bill")
	}

	log.Info().Int32("user_id", userID).Int32("bill_id", id).Bool("is_paid", bill.IsPaid).Msg("Bill paid status changed")

	return c.JSON(http.StatusOK, bill)
}

// DeleteBill handles DELETE /bills/:id
func (h *BillHandler) DeleteBill(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParamError(c, "id")
	}

	if err := h.billService.DeleteBill(c.Request().Context(), userID, id); err != nil {
		return respondServiceError(c, err, "delete bill")
	}
	return c.NoContent(http.StatusNoContent)
}
