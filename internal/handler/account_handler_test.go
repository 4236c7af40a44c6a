package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/service"
	"github.com/wonbook/wonbook-backend/internal/testutil"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// fakeFXSource returns a fixed conversion rate for every pair
type fakeFXSource struct {
	rate decimal.Decimal
}

func (f *fakeFXSource) GetFXRate(ctx context.Context, workspaceID int32, base, quote domain.Currency) (*domain.FXRate, error) {
	return &domain.FXRate{Base: base, Quote: quote, Rate: f.rate, UpdatedAt: time.Now()}, nil
}

func newAccountHandlerFixture() (*AccountHandler, *testutil.MockAccountRepository) {
	accountRepo := testutil.NewMockAccountRepository()
	ledgerRepo := testutil.NewMockLedgerRepository()
	tradeRepo := testutil.NewMockTradeRepository()
	publisher := &websocket.NoOpPublisher{}
	fx := &fakeFXSource{rate: decimal.NewFromInt(1300)}

	accountService := service.NewAccountService(accountRepo, publisher)
	balanceService := service.NewBalanceService(accountRepo, ledgerRepo, tradeRepo, fx)
	return NewAccountHandler(accountService, balanceService), accountRepo
}

func TestCreateAccount_Success(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountHandlerFixture()

	body := `{"name":"KB Checking","accountType":"checking","currency":"KRW","initialBalance":"500000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|acct", "acct@example.com", "", "", 1)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "KB Checking" {
		t.Errorf("Expected name 'KB Checking', got %s", response.Name)
	}
	if response.InitialBalance != "500000" {
		t.Errorf("Expected initial balance '500000', got %s", response.InitialBalance)
	}
}

func TestCreateAccount_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing name",
			body:  `{"name":"","accountType":"checking","currency":"KRW"}`,
			field: "name",
		},
		{
			name:  "invalid account type",
			body:  `{"name":"A","accountType":"crypto","currency":"KRW"}`,
			field: "accountType",
		},
		{
			name:  "invalid currency",
			body:  `{"name":"A","accountType":"checking","currency":"EUR"}`,
			field: "currency",
		},
		{
			name:  "malformed balance",
			body:  `{"name":"A","accountType":"checking","currency":"KRW","initialBalance":"abc"}`,
			field: "initialBalance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler, _ := newAccountHandlerFixture()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setupAuthContextWithWorkspace(c, "auth0|acct", "acct@example.com", "", "", 1)

			if err := handler.CreateAccount(c); err != nil {
				t.Fatalf("Expected JSON response, got error: %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
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

func TestCreateAccount_MissingWorkspace(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetAccounts_IncludesBalances(t *testing.T) {
	e := echo.New()
	handler, accountRepo := newAccountHandlerFixture()

	accountRepo.AddAccount(&domain.Account{
		ID:             1,
		WorkspaceID:    1,
		Name:           "Checking",
		AccountType:    domain.AccountTypeChecking,
		Currency:       domain.CurrencyKRW,
		InitialBalance: decimal.NewFromInt(100000),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|acct", "acct@example.com", "", "", 1)

	if err := handler.GetAccounts(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var accounts []AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Balance == nil {
		t.Fatal("Expected balance to be populated")
	}
	if *accounts[0].Balance != "100000" {
		t.Errorf("Expected balance '100000', got %s", *accounts[0].Balance)
	}
}

func TestUpdateAccount_Success(t *testing.T) {
	e := echo.New()
	handler, accountRepo := newAccountHandlerFixture()

	accountRepo.AddAccount(&domain.Account{
		ID:          1,
		WorkspaceID: 1,
		Name:        "Old Name",
		AccountType: domain.AccountTypeSavings,
		Currency:    domain.CurrencyKRW,
	})

	body := `{"name":"New Name","cashAdjustment":"2500"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/accounts/1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|acct", "acct@example.com", "", "", 1)

	if err := handler.UpdateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "New Name" {
		t.Errorf("Expected name 'New Name', got %s", response.Name)
	}
	if response.CashAdjustment != "2500" {
		t.Errorf("Expected cash adjustment '2500', got %s", response.CashAdjustment)
	}
}

func TestDeleteAccount_NotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountHandlerFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupAuthContextWithWorkspace(c, "auth0|acct", "acct@example.com", "", "", 1)

	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetBalances_InvalidThroughDate(t *testing.T) {
	e := echo.New()
	handler, _ := newAccountHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/balances?through=March", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|acct", "acct@example.com", "", "", 1)

	if err := handler.GetBalances(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
