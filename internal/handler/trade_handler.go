package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// TradeHandler handles stock trade HTTP requests
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

// CreateTradeRequest represents the create trade request body
type CreateTradeRequest struct {
	AccountID int32  `json:"accountId"`
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Side      string `json:"side"`
	TradeDate string `json:"tradeDate"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
	Fee       string `json:"fee,omitempty"`
}

// UpdateTradeRequest represents the update trade request body
type UpdateTradeRequest struct {
	Name      string `json:"name"`
	TradeDate string `json:"tradeDate"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
	Fee       string `json:"fee,omitempty"`
}

// CreateTrade handles POST /api/v1/trades
func (h *TradeHandler) CreateTrade(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateTradeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	tradeDate, err := time.Parse(entryDateLayout, req.TradeDate)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "tradeDate", Message: "Trade date must be in YYYY-MM-DD format"},
		})
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "quantity", Message: "Quantity must be a valid number"},
		})
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "price", Message: "Price must be a valid number"},
		})
	}

	fee := decimal.Zero
	if req.Fee != "" {
		fee, err = decimal.NewFromString(req.Fee)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fee", Message: "Fee must be a valid number"},
			})
		}
	}

	trade, err := h.tradeService.CreateTrade(workspaceID, service.CreateTradeInput{
		AccountID: req.AccountID,
		Ticker:    req.Ticker,
		Name:      req.Name,
		Side:      domain.TradeSide(req.Side),
		TradeDate: tradeDate,
		Quantity:  quantity,
		Price:     price,
		Fee:       fee,
	})
	if err != nil {
		return h.mapTradeError(c, workspaceID, err, "Failed to create trade")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("ticker", trade.Ticker).
		Str("side", string(trade.Side)).
		Msg("Trade created")

	return c.JSON(http.StatusCreated, trade)
}

// GetTrades handles GET /api/v1/trades with optional filters
func (h *TradeHandler) GetTrades(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters := &domain.TradeFilters{}

	if v := c.QueryParam("accountId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return NewValidationError(c, "Invalid accountId", nil)
		}
		accountID := int32(id)
		filters.AccountID = &accountID
	}
	if v := c.QueryParam("ticker"); v != "" {
		filters.Ticker = &v
	}
	if v := c.QueryParam("side"); v != "" {
		side := domain.TradeSide(v)
		if side != domain.TradeSideBuy && side != domain.TradeSideSell {
			return NewValidationError(c, "Side must be buy or sell", nil)
		}
		filters.Side = &side
	}
	if v := c.QueryParam("startDate"); v != "" {
		t, err := time.Parse(entryDateLayout, v)
		if err != nil {
			return NewValidationError(c, "startDate must be in YYYY-MM-DD format", nil)
		}
		filters.StartDate = &t
	}
	if v := c.QueryParam("endDate"); v != "" {
		t, err := time.Parse(entryDateLayout, v)
		if err != nil {
			return NewValidationError(c, "endDate must be in YYYY-MM-DD format", nil)
		}
		filters.EndDate = &t
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return NewValidationError(c, "Invalid page", nil)
		}
		filters.Page = int32(page)
	}
	if v := c.QueryParam("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return NewValidationError(c, "Invalid pageSize", nil)
		}
		filters.PageSize = int32(size)
	}

	trades, err := h.tradeService.GetTrades(workspaceID, filters)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get trades")
		return NewInternalError(c, "Failed to get trades")
	}

	return c.JSON(http.StatusOK, trades)
}

// GetTrade handles GET /api/v1/trades/:id
func (h *TradeHandler) GetTrade(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid trade ID", nil)
	}

	trade, err := h.tradeService.GetTradeByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrTradeNotFound) {
			return NewNotFoundError(c, "Trade not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("trade_id", id).Msg("Failed to get trade")
		return NewInternalError(c, "Failed to get trade")
	}

	return c.JSON(http.StatusOK, trade)
}

// UpdateTrade handles PUT /api/v1/trades/:id
func (h *TradeHandler) UpdateTrade(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid trade ID", nil)
	}

	var req UpdateTradeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	tradeDate, err := time.Parse(entryDateLayout, req.TradeDate)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "tradeDate", Message: "Trade date must be in YYYY-MM-DD format"},
		})
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "quantity", Message: "Quantity must be a valid number"},
		})
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "price", Message: "Price must be a valid number"},
		})
	}

	fee := decimal.Zero
	if req.Fee != "" {
		fee, err = decimal.NewFromString(req.Fee)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fee", Message: "Fee must be a valid number"},
			})
		}
	}

	trade, err := h.tradeService.UpdateTrade(workspaceID, int32(id), &domain.UpdateTradeData{
		Name:      req.Name,
		TradeDate: tradeDate,
		Quantity:  quantity,
		Price:     price,
		Fee:       fee,
	})
	if err != nil {
		return h.mapTradeError(c, workspaceID, err, "Failed to update trade")
	}

	return c.JSON(http.StatusOK, trade)
}

// DeleteTrade handles DELETE /api/v1/trades/:id
func (h *TradeHandler) DeleteTrade(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid trade ID", nil)
	}

	if err := h.tradeService.DeleteTrade(workspaceID, int32(id)); err != nil {
		return h.mapTradeError(c, workspaceID, err, "Failed to delete trade")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *TradeHandler) mapTradeError(c echo.Context, workspaceID int32, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrTradeNotFound):
		return NewNotFoundError(c, "Trade not found")
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewNotFoundError(c, "Account not found")
	case errors.Is(err, domain.ErrNotSecuritiesAccount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Trades require a securities account"},
		})
	case errors.Is(err, domain.ErrInsufficientShares):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "quantity", Message: "Sell quantity exceeds shares held"},
		})
	case errors.Is(err, domain.ErrInvalidQuantity):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "quantity", Message: "Quantity must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "price", Message: "Price must be positive and fee non-negative"},
		})
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "ticker", Message: "Ticker is required"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "side", Message: "Side must be buy or sell"},
		})
	default:
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg(logMsg)
		return NewInternalError(c, logMsg)
	}
}
