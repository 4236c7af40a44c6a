package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/service"
	"github.com/wonbook/wonbook-backend/internal/testutil"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

func newPortfolioHandlerFixture() (*PortfolioHandler, *testutil.MockAccountRepository, *testutil.MockTradeRepository, *testutil.MockQuoteProvider) {
	accountRepo := testutil.NewMockAccountRepository()
	ledgerRepo := testutil.NewMockLedgerRepository()
	tradeRepo := testutil.NewMockTradeRepository()
	quoteRepo := testutil.NewMockQuoteRepository()
	provider := testutil.NewMockQuoteProvider()
	publisher := &websocket.NoOpPublisher{}

	quoteService := service.NewQuoteService(provider, quoteRepo, tradeRepo, publisher, time.Minute)
	balanceService := service.NewBalanceService(accountRepo, ledgerRepo, tradeRepo, quoteService)
	positionService := service.NewPositionService(tradeRepo, quoteService)
	netWorthService := service.NewNetWorthService(accountRepo, ledgerRepo, tradeRepo, balanceService, positionService, quoteService, quoteService)

	return NewPortfolioHandler(positionService, netWorthService), accountRepo, tradeRepo, provider
}

func TestGetPositions_FoldsTrades(t *testing.T) {
	e := echo.New()
	handler, _, tradeRepo, provider := newPortfolioHandlerFixture()

	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 1, WorkspaceID: 1, AccountID: 1,
		Ticker: "VOO", Side: domain.TradeSideBuy,
		TradeDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Quantity:  decimal.NewFromInt(4),
		Price:     decimal.NewFromInt(500),
		Currency:  domain.CurrencyUSD,
	})
	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 2, WorkspaceID: 1, AccountID: 1,
		Ticker: "VOO", Side: domain.TradeSideSell,
		TradeDate: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		Quantity:  decimal.NewFromInt(1),
		Price:     decimal.NewFromInt(520),
		Currency:  domain.CurrencyUSD,
	})
	provider.Quotes["VOO"] = &domain.StockPrice{
		Ticker:    "VOO",
		Price:     decimal.NewFromInt(530),
		Currency:  domain.CurrencyUSD,
		UpdatedAt: time.Now(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/positions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|pf", "pf@example.com", "", "", 1)

	if err := handler.GetPositions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var positions []service.Position
	if err := json.Unmarshal(rec.Body.Bytes(), &positions); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(positions) != 1 {
		t.Fatalf("Expected 1 position, got %d", len(positions))
	}
	p := positions[0]
	if !p.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected quantity 3 after partial sell, got %s", p.Quantity)
	}
	if p.CurrentPrice == nil || !p.CurrentPrice.Equal(decimal.NewFromInt(530)) {
		t.Errorf("Expected current price 530, got %v", p.CurrentPrice)
	}
	if p.MarketValue == nil || !p.MarketValue.Equal(decimal.NewFromInt(1590)) {
		t.Errorf("Expected market value 1590, got %v", p.MarketValue)
	}
}

func TestGetPositions_Empty(t *testing.T) {
	e := echo.New()
	handler, _, _, _ := newPortfolioHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/positions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|pf", "pf@example.com", "", "", 1)

	if err := handler.GetPositions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
}

func TestGetNetWorthCurrent(t *testing.T) {
	e := echo.New()
	handler, accountRepo, _, _ := newPortfolioHandlerFixture()

	accountRepo.AddAccount(&domain.Account{
		ID:             1,
		WorkspaceID:    1,
		Name:           "Checking",
		AccountType:    domain.AccountTypeChecking,
		Currency:       domain.CurrencyKRW,
		InitialBalance: decimal.NewFromInt(1000000),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/networth/current", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|pf", "pf@example.com", "", "", 1)

	if err := handler.GetNetWorthCurrent(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var point service.NetWorthPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &point); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !point.Cash.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Expected cash 1000000, got %s", point.Cash)
	}
	if !point.NetWorth.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Expected net worth 1000000, got %s", point.NetWorth)
	}
}

func TestGetNetWorthSeries_Unauthorized(t *testing.T) {
	e := echo.New()
	handler, _, _, _ := newPortfolioHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/networth", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetNetWorthSeries(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
