package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/service"
	"github.com/wonbook/wonbook-backend/internal/testutil"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

func newDCAHandlerFixture() (*DCAHandler, *testutil.MockAccountRepository, *testutil.MockDCAPlanRepository) {
	planRepo := testutil.NewMockDCAPlanRepository()
	accountRepo := testutil.NewMockAccountRepository()
	tradeRepo := testutil.NewMockTradeRepository()
	quoteRepo := testutil.NewMockQuoteRepository()
	provider := testutil.NewMockQuoteProvider()
	publisher := &websocket.NoOpPublisher{}

	tradeService := service.NewTradeService(tradeRepo, accountRepo, publisher)
	quoteService := service.NewQuoteService(provider, quoteRepo, tradeRepo, publisher, 0)
	dcaService := service.NewDCAService(planRepo, accountRepo, tradeService, quoteService, publisher)
	return NewDCAHandler(dcaService), accountRepo, planRepo
}

func TestCreateDCAPlan_Success(t *testing.T) {
	e := echo.New()
	handler, accountRepo, _ := newDCAHandlerFixture()
	addSecuritiesAccount(accountRepo, 1)

	body := `{"accountId":1,"ticker":"voo","amount":"100","dayOfMonth":15,"hour":9,"minute":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dca-plans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

	if err := handler.CreatePlan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan domain.DCAPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if plan.Ticker != "VOO" {
		t.Errorf("Expected ticker normalized to 'VOO', got %s", plan.Ticker)
	}
	if !plan.Enabled {
		t.Error("Expected plan to default to enabled")
	}
}

func TestCreateDCAPlan_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing ticker",
			body:  `{"accountId":1,"ticker":"","amount":"100","dayOfMonth":15,"hour":9,"minute":0}`,
			field: "ticker",
		},
		{
			name:  "non-positive amount",
			body:  `{"accountId":1,"ticker":"VOO","amount":"0","dayOfMonth":15,"hour":9,"minute":0}`,
			field: "amount",
		},
		{
			name:  "day out of range",
			body:  `{"accountId":1,"ticker":"VOO","amount":"100","dayOfMonth":32,"hour":9,"minute":0}`,
			field: "dayOfMonth",
		},
		{
			name:  "hour out of range",
			body:  `{"accountId":1,"ticker":"VOO","amount":"100","dayOfMonth":15,"hour":24,"minute":0}`,
			field: "dayOfMonth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler, accountRepo, _ := newDCAHandlerFixture()
			addSecuritiesAccount(accountRepo, 1)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/dca-plans", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

			if err := handler.CreatePlan(c); err != nil {
				t.Fatalf("Expected JSON response, got error: %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}

			var pd ProblemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &pd); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if len(pd.Errors) == 0 || pd.Errors[0].Field != tt.field {
				t.Errorf("Expected field error on %q, got %+v", tt.field, pd.Errors)
			}
		})
	}
}

func TestCreateDCAPlan_NonSecuritiesAccount(t *testing.T) {
	e := echo.New()
	handler, accountRepo, _ := newDCAHandlerFixture()
	accountRepo.AddAccount(&domain.Account{
		ID:          1,
		WorkspaceID: 1,
		Name:        "Checking",
		AccountType: domain.AccountTypeChecking,
		Currency:    domain.CurrencyKRW,
	})

	body := `{"accountId":1,"ticker":"VOO","amount":"100","dayOfMonth":15,"hour":9,"minute":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dca-plans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

	if err := handler.CreatePlan(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateDCAPlan_Success(t *testing.T) {
	e := echo.New()
	handler, accountRepo, planRepo := newDCAHandlerFixture()
	addSecuritiesAccount(accountRepo, 1)

	planRepo.AddPlan(&domain.DCAPlan{
		ID: 1, WorkspaceID: 1, AccountID: 1,
		Ticker: "VOO", Amount: decimal.NewFromInt(100),
		DayOfMonth: 15, Hour: 9, Minute: 0, Enabled: true,
	})

	body := `{"amount":"250","dayOfMonth":1,"hour":10,"minute":30,"enabled":false}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/dca-plans/1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

	if err := handler.UpdatePlan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan domain.DCAPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if plan.Enabled {
		t.Error("Expected plan to be disabled after update")
	}
	if !plan.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected amount 250, got %s", plan.Amount)
	}
}

func TestDeleteDCAPlan_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newDCAHandlerFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/dca-plans/9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9")
	setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

	if err := handler.DeletePlan(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetDCAPlan_Success(t *testing.T) {
	e := echo.New()
	handler, accountRepo, planRepo := newDCAHandlerFixture()
	addSecuritiesAccount(accountRepo, 1)

	planRepo.AddPlan(&domain.DCAPlan{
		ID: 3, WorkspaceID: 1, AccountID: 1,
		Ticker: "VOO", Amount: decimal.NewFromInt(100),
		DayOfMonth: 15, Hour: 9, Minute: 30, Enabled: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dca-plans/3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

	if err := handler.GetPlan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan domain.DCAPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if plan.ID != 3 {
		t.Errorf("Expected plan ID 3, got %d", plan.ID)
	}
	if plan.Ticker != "VOO" {
		t.Errorf("Expected ticker 'VOO', got %s", plan.Ticker)
	}
}

func TestGetDCAPlan_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newDCAHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dca-plans/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupAuthContextWithWorkspace(c, "auth0|dca", "dca@example.com", "", "", 1)

	if err := handler.GetPlan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}
