package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReportHandler handles monthly report HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GenerateReport godoc
// @Summary Generate a monthly report
// @Description Builds the month's report and archives it to object storage when configured
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param month path string true "Month (YYYY-MM)"
// @Param userId query int false "Restrict to one accessible owner"
// @Success 201 {object} domain.MonthlyReport
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /reports/{month} [post]
func (h *ReportHandler) GenerateReport(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	ownerID, ok := parseOptionalUserID(c)
	if !ok {
		return invalidParamError(c, "userId")
	}

	month := c.Param("month")
	report, err := h.reportService.GenerateMonthlyReport(c.Request().Context(), userID, ownerID, month)
	if err != nil {
		if errors.Is(err, domain.ErrReportEmpty) {
			return NewNotFoundError(c, "No transactions recorded in "+month)
		}
		return respondServiceError(c, err, "generate report")
	}

	log.Info().Int32("user_id", userID).Str("month", month).Str("report_id", report.ID).Bool("archived", report.ObjectKey != "").Msg("Monthly report generated")

	return c.JSON(http.StatusCreated, report)
}
