package handler

import (
	"net/http"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetOverview godoc
// @Summary Get dashboard overview
// @Description Current month summary, next month projection and bills due within 30 days
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardOverview
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /dashboard [get]
func (h *DashboardHandler) GetOverview(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	overview, err := h.dashboardService.GetOverview(c.Request().Context(), userID)
	if err != nil {
		return respondServiceError(c, err, "get dashboard")
	}
	return c.JSON(http.StatusOK, overview)
}

// GetSummary godoc
// @Summary Get monthly summary
// @Description Realized totals and category breakdown over the caller and the owners sharing with them
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Param userId query int false "Restrict to one accessible owner"
// @Success 200 {object} service.MonthSummary
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	ownerID, ok := parseOptionalUserID(c)
	if !ok {
		return invalidParamError(c, "userId")
	}

	summary, err := h.dashboardService.GetSummary(c.Request().Context(), userID, ownerID, c.QueryParam("month"))
	if err != nil {
		return respondServiceError(c, err, "get dashboard summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetProjection godoc
// @Summary Get month projection
// @Description Projected income and expenses from recurring templates plus the historical expense average
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM), defaults to next month"
// @Success 200 {object} domain.ProjectionOverview
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /dashboard/projection [get]
func (h *DashboardHandler) GetProjection(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	projection, err := h.dashboardService.GetProjection(c.Request().Context(), userID, c.QueryParam("month"))
	if err != nil {
		return respondServiceError(c, err, "get projection")
	}
	return c.JSON(http.StatusOK, projection)
}
