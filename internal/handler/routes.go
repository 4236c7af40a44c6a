package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/wonbook/wonbook-backend/internal/middleware"
)

// Handlers bundles every HTTP handler for route registration
type Handlers struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Account   *AccountHandler
	Ledger    *LedgerHandler
	Category  *CategoryHandler
	Trade     *TradeHandler
	Quote     *QuoteHandler
	Portfolio *PortfolioHandler
	DCA       *DCAHandler
	Receipt   *ReceiptHandler
	APIToken  *APITokenHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes. Auth, profile and API token
// management require a browser JWT; data routes also accept wbk_ API
// tokens, which are rate limited per token.
func RegisterRoutes(e *echo.Echo, dualAuth *middleware.DualAuthMiddleware, rateLimiter *middleware.RateLimiter, h *Handlers) {
	api := e.Group("/api/v1")

	// Auth routes (JWT only)
	auth := api.Group("/auth")
	auth.Use(dualAuth.JWTOnly())
	auth.POST("/callback", h.Auth.Callback)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	// Profile routes (JWT only)
	profile := api.Group("/profile")
	profile.Use(dualAuth.JWTOnly())
	profile.GET("", h.Profile.GetProfile)
	profile.PUT("", h.Profile.UpdateProfile)

	// API token management (JWT only; a token cannot mint or revoke tokens)
	apiTokens := api.Group("/api-tokens")
	apiTokens.Use(dualAuth.JWTOnly())
	apiTokens.POST("", h.APIToken.CreateAPIToken)
	apiTokens.GET("", h.APIToken.GetAPITokens)
	apiTokens.DELETE("/:id", h.APIToken.RevokeAPIToken)

	// Data routes accept either auth and are rate limited per API token
	data := api.Group("")
	data.Use(dualAuth.Authenticate())
	data.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Accounts
	data.POST("/accounts", h.Account.CreateAccount)
	data.GET("/accounts", h.Account.GetAccounts)
	data.GET("/accounts/balances", h.Account.GetBalances)
	data.PUT("/accounts/:id", h.Account.UpdateAccount)
	data.DELETE("/accounts/:id", h.Account.DeleteAccount)

	// Ledger entries and transfers
	data.POST("/entries", h.Ledger.CreateEntry)
	data.GET("/entries", h.Ledger.GetEntries)
	data.GET("/entries/:id", h.Ledger.GetEntry)
	data.PUT("/entries/:id", h.Ledger.UpdateEntry)
	data.DELETE("/entries/:id", h.Ledger.DeleteEntry)
	data.POST("/entries/transfers", h.Ledger.CreateTransfer)

	// Receipts
	data.POST("/entries/:id/receipt", h.Receipt.UploadReceipt)
	data.GET("/entries/:id/receipt", h.Receipt.GetReceiptURL)
	data.DELETE("/entries/:id/receipt", h.Receipt.DeleteReceipt)

	// Categories
	data.POST("/categories", h.Category.CreateCategory)
	data.GET("/categories", h.Category.GetCategories)
	data.PUT("/categories/:id/subcategories", h.Category.UpdateSubCategories)
	data.PUT("/categories/:id/name", h.Category.RenameCategory)
	data.DELETE("/categories/:id", h.Category.DeleteCategory)

	// Trades
	data.POST("/trades", h.Trade.CreateTrade)
	data.GET("/trades", h.Trade.GetTrades)
	data.GET("/trades/:id", h.Trade.GetTrade)
	data.PUT("/trades/:id", h.Trade.UpdateTrade)
	data.DELETE("/trades/:id", h.Trade.DeleteTrade)

	// Quotes and FX
	data.GET("/quotes", h.Quote.GetQuotes)
	data.GET("/quotes/:ticker", h.Quote.GetQuote)
	data.POST("/quotes/refresh", h.Quote.RefreshQuotes)
	data.GET("/fx", h.Quote.GetFXRate)

	// Portfolio views
	data.GET("/portfolio/positions", h.Portfolio.GetPositions)
	data.GET("/portfolio/networth", h.Portfolio.GetNetWorthSeries)
	data.GET("/portfolio/networth/current", h.Portfolio.GetNetWorthCurrent)

	// DCA plans
	data.POST("/dca-plans", h.DCA.CreatePlan)
	data.GET("/dca-plans", h.DCA.GetPlans)
	data.GET("/dca-plans/:id", h.DCA.GetPlan)
	data.PUT("/dca-plans/:id", h.DCA.UpdatePlan)
	data.DELETE("/dca-plans/:id", h.DCA.DeletePlan)

	// WebSocket endpoint authenticates via query token, not middleware
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}
}
