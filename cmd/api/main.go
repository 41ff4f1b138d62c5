package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/amqp"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/config"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/handler"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/repository/postgres"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/repository/storage"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if err := postgres.RunMigrations(pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database schema up to date")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	templateRepo := postgres.NewRecurringTemplateRepository(pool)
	occurrenceStore := postgres.NewOccurrenceStore(pool)
	shareRepo := postgres.NewShareRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	summaryRepo := postgres.NewSummaryRepository(pool)

	accessCache, err := service.NewAccessCache()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create access cache")
	}
	defer accessCache.Close()

	// Realtime fan-out: websocket clients plus the optional broker
	hub := websocket.NewHub()
	publishers := websocket.MultiPublisher{hub}

	var brokerPublisher *amqp.Publisher
	if cfg.AMQP.Enabled() {
		brokerPublisher, err = amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
		}
		defer brokerPublisher.Close()
		publishers = append(publishers, brokerPublisher)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Publishing events to AMQP")
	}

	// Initialize services
	engine := service.NewRecurrenceEngine()
	authService := service.NewAuthService(userRepo)
	profileService := service.NewProfileService(userRepo)
	shareService := service.NewShareService(shareRepo, userRepo, accessCache)

	transactionService := service.NewTransactionService(transactionRepo, shareService)
	transactionService.SetEventPublisher(publishers)

	materializer := service.NewMaterializer(templateRepo, occurrenceStore, engine, log.Logger)
	if cfg.MaterializeCatchUp {
		materializer.SetCatchUpStrategy(service.CatchUpLoop{Limit: cfg.MaterializeMaxCatchUp})
	}
	materializer.SetEventPublisher(publishers)

	templateService := service.NewRecurringTemplateService(templateRepo, materializer)
	templateService.SetEventPublisher(publishers)

	billService := service.NewBillService(billRepo)
	billService.SetEventPublisher(publishers)

	summaryService := service.NewSummaryService(summaryRepo, shareService)
	projectionService := service.NewProjectionService(templateRepo, summaryRepo, engine, cfg.ProjectionHistoryMonths, log.Logger)
	dashboardService := service.NewDashboardService(summaryService, projectionService, billService, profileService)

	var reportStore domain.ReportStore
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3ReportStore(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize report storage")
		}
		reportStore = s3Store
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Archiving reports to S3")
	}
	reportService := service.NewReportService(summaryService, transactionRepo, profileService, shareService, reportStore)
	reportService.SetURLExpiry(cfg.S3.URLExpiry)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		rateLimiter = middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, middleware.DefaultBurstSize)
		defer rateLimiter.Stop()
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Profile:     handler.NewProfileHandler(profileService),
		Share:       handler.NewShareHandler(shareService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Template:    handler.NewRecurringTemplateHandler(templateService),
		Bill:        handler.NewBillHandler(billService),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Report:      handler.NewReportHandler(reportService),
		WebSocket:   handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API documentation
	handler.RegisterDocRoutes(e)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.MaterializeInterval > 0 {
		worker := service.NewMaterializerWorker(materializer, log.Logger, service.MaterializerWorkerConfig{
			Interval: cfg.MaterializeInterval,
		})
		worker.Start(gctx)
		defer worker.Stop()
	} else {
		log.Info().Msg("Background materialization disabled")
	}

	if brokerPublisher != nil {
		g.Go(func() error {
			return brokerPublisher.Run(gctx)
		})
	}

	// Graceful shutdown once a signal arrives or a component fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
