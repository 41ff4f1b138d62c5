package handler

import (
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	Profile     *ProfileHandler
	Share       *ShareHandler
	Transaction *TransactionHandler
	Template    *RecurringTemplateHandler
	Bill        *BillHandler
	Dashboard   *DashboardHandler
	Report      *ReportHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// WebSocket authenticates through its token query parameter
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1, every route is protected
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	if rateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	// Profile routes
	profile := api.Group("/profile")
	profile.GET("", h.Profile.GetProfile)
	profile.PUT("/preferences", h.Profile.UpdatePreferences)

	// Data share routes
	shares := api.Group("/shares")
	shares.POST("", h.Share.CreateShare)
	shares.GET("", h.Share.ListShares)
	shares.GET("/received", h.Share.ListSharedWithMe)
	shares.PUT("/:id", h.Share.UpdateShare)
	shares.DELETE("/:id", h.Share.DeleteShare)

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	// Recurring template routes
	templates := api.Group("/recurring-templates")
	templates.POST("", h.Template.CreateTemplate)
	templates.GET("", h.Template.ListTemplates)
	templates.POST("/materialize", h.Template.Materialize)
	templates.GET("/:id", h.Template.GetTemplate)
	templates.PUT("/:id", h.Template.UpdateTemplate)
	templates.DELETE("/:id", h.Template.DeleteTemplate)

	// Bill routes
	bills := api.Group("/bills")
	bills.POST("", h.Bill.CreateBill)
	bills.GET("", h.Bill.ListBills)
	bills.GET("/upcoming", h.Bill.UpcomingBills)
	bills.GET("/:id", h.Bill.GetBill)
	bills.PUT("/:id", h.Bill.UpdateBill)
	bills.PATCH("/:id/paid", h.Bill.SetPaid)
	bills.DELETE("/:id", h.Bill.DeleteBill)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.GET("", h.Dashboard.GetOverview)
	dashboard.GET("/summary", h.Dashboard.GetSummary)
	dashboard.GET("/projection", h.Dashboard.GetProjection)

	// Report routes
	reports := api.Group("/reports")
	reports.POST("/:month", h.Report.GenerateReport)
}
