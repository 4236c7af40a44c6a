package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// QuoteHandler handles market data HTTP requests
type QuoteHandler struct {
	quoteService *service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// RefreshQuotesResponse reports how many tickers were refreshed
type RefreshQuotesResponse struct {
	Refreshed int `json:"refreshed"`
}

// GetQuotes handles GET /api/v1/quotes. It returns a cached price for
// every ticker the workspace has ever traded; tickers the provider
// cannot price are omitted rather than failing the whole response.
func (h *QuoteHandler) GetQuotes(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	quotes, err := h.quoteService.GetQuotes(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get quotes")
		return NewInternalError(c, "Failed to get quotes")
	}

	return c.JSON(http.StatusOK, quotes)
}

// GetQuote handles GET /api/v1/quotes/:ticker
func (h *QuoteHandler) GetQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		return NewValidationError(c, "Ticker is required", nil)
	}

	price, err := h.quoteService.GetQuote(c.Request().Context(), workspaceID, ticker)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteNotFound) {
			return NewNotFoundError(c, "No quote available for "+ticker)
		}
		log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get quote")
		return NewInternalError(c, "Failed to get quote")
	}

	return c.JSON(http.StatusOK, price)
}

// RefreshQuotes handles POST /api/v1/quotes/refresh
func (h *QuoteHandler) RefreshQuotes(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	refreshed, err := h.quoteService.RefreshQuotes(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to refresh quotes")
		return NewInternalError(c, "Failed to refresh quotes")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("refreshed", refreshed).Msg("Quotes refreshed")
	return c.JSON(http.StatusOK, RefreshQuotesResponse{Refreshed: refreshed})
}

// GetFXRate handles GET /api/v1/fx?base=USD&quote=KRW
func (h *QuoteHandler) GetFXRate(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	base := domain.Currency(strings.ToUpper(c.QueryParam("base")))
	quote := domain.Currency(strings.ToUpper(c.QueryParam("quote")))
	if !domain.ValidCurrency(base) || !domain.ValidCurrency(quote) {
		return NewValidationError(c, "base and quote must be KRW or USD", nil)
	}

	rate, err := h.quoteService.GetFXRate(c.Request().Context(), workspaceID, base, quote)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteNotFound) {
			return NewNotFoundError(c, "No FX rate available")
		}
		log.Error().Err(err).
			Str("base", string(base)).
			Str("quote", string(quote)).
			Msg("Failed to get FX rate")
		return NewInternalError(c, "Failed to get FX rate")
	}

	return c.JSON(http.StatusOK, rate)
}
