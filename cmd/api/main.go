package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/config"
	"github.com/wonbook/wonbook-backend/internal/handler"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/quote"
	"github.com/wonbook/wonbook-backend/internal/repository/postgres"
	"github.com/wonbook/wonbook-backend/internal/repository/storage"
	"github.com/wonbook/wonbook-backend/internal/service"
	"github.com/wonbook/wonbook-backend/internal/websocket"
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

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	tradeRepo := postgres.NewTradeRepository(pool)
	quoteRepo := postgres.NewQuoteRepository(pool)
	dcaPlanRepo := postgres.NewDCAPlanRepository(pool)
	apiTokenRepo := postgres.NewAPITokenRepository(pool)

	// Receipt storage is optional: without credentials the feature is
	// disabled and upload endpoints answer 503
	var receiptStorage storage.ReceiptRepository
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		s3Repo, err := storage.NewS3ReceiptRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize receipt storage")
		}
		receiptStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Receipt storage enabled")
	} else {
		log.Warn().Msg("Receipt storage disabled: S3 credentials not configured")
	}

	// WebSocket hub doubles as the event publisher for all services
	hub := websocket.NewHub()

	// Quote provider with client-side rate limiting
	quoteProvider := quote.NewHTTPProvider(cfg.Quote.BaseURL, cfg.Quote.APIKey, cfg.Quote.RequestsPerSec)

	// Initialize services
	authService := service.NewAuthService(userRepo, workspaceRepo)
	profileService := service.NewProfileService(userRepo)
	accountService := service.NewAccountService(accountRepo, hub)
	ledgerService := service.NewLedgerService(ledgerRepo, accountRepo, hub)
	categoryService := service.NewCategoryService(categoryRepo, ledgerRepo, hub)
	tradeService := service.NewTradeService(tradeRepo, accountRepo, hub)
	quoteService := service.NewQuoteService(quoteProvider, quoteRepo, tradeRepo, hub, cfg.Quote.CacheTTL)
	balanceService := service.NewBalanceService(accountRepo, ledgerRepo, tradeRepo, quoteService)
	positionService := service.NewPositionService(tradeRepo, quoteService)
	netWorthService := service.NewNetWorthService(accountRepo, ledgerRepo, tradeRepo, balanceService, positionService, quoteService, quoteService)
	dcaService := service.NewDCAService(dcaPlanRepo, accountRepo, tradeService, quoteService, hub)
	apiTokenService := service.NewAPITokenService(apiTokenRepo)
	receiptService := service.NewReceiptService(receiptStorage, ledgerRepo)

	// Create workspace provider adapter for auth middleware
	workspaceProvider := &workspaceProviderAdapter{authService: authService}

	// Initialize auth middleware: Auth0 JWTs plus long-lived API tokens
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	apiTokenAuth := middleware.NewAPITokenAuthMiddleware(apiTokenService)
	dualAuth := middleware.NewDualAuthMiddleware(authMiddleware, apiTokenAuth)
	rateLimiter := middleware.NewRateLimiter()

	// WebSocket token validation (browsers pass the JWT as a query param)
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket JWT validator")
	}

	// Initialize handlers
	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Profile:   handler.NewProfileHandler(profileService),
		Account:   handler.NewAccountHandler(accountService, balanceService),
		Ledger:    handler.NewLedgerHandler(ledgerService),
		Category:  handler.NewCategoryHandler(categoryService),
		Trade:     handler.NewTradeHandler(tradeService),
		Quote:     handler.NewQuoteHandler(quoteService),
		Portfolio: handler.NewPortfolioHandler(positionService, netWorthService),
		DCA:       handler.NewDCAHandler(dcaService),
		Receipt:   handler.NewReceiptHandler(receiptService),
		APIToken:  handler.NewAPITokenHandler(apiTokenService, authService),
		WebSocket: handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
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
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, dualAuth, rateLimiter, handlers)

	// Background workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	quoteWorker := service.NewQuoteWorker(quoteService, workspaceRepo, log.Logger, service.QuoteWorkerConfig{
		Interval: cfg.Quote.RefreshEvery,
	})
	quoteWorker.Start(workerCtx)

	var dcaWorker *service.DCAWorker
	if cfg.DCA.Enabled {
		dcaWorker = service.NewDCAWorker(dcaService, log.Logger, service.DCAWorkerConfig{
			Interval: cfg.DCA.PollInterval,
		})
		dcaWorker.Start(workerCtx)
	} else {
		log.Info().Msg("DCA worker disabled")
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	quoteWorker.Stop()
	if dcaWorker != nil {
		dcaWorker.Stop()
	}
	cancelWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// workspaceProviderAdapter adapts AuthService to the workspace lookup
// interfaces used by both the HTTP auth middleware and the WebSocket
// token validator
type workspaceProviderAdapter struct {
	authService *service.AuthService
}

// GetWorkspaceByAuth0ID implements middleware.WorkspaceProvider
func (a *workspaceProviderAdapter) GetWorkspaceByAuth0ID(auth0ID string) (int32, error) {
	workspace, err := a.authService.GetWorkspaceByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
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

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
