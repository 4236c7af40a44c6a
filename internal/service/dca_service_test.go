package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/testutil"
)

func newDCAFixture(prices map[string]decimal.Decimal) (*DCAService, *testutil.MockDCAPlanRepository, *testutil.MockTradeRepository, *testutil.MockAccountRepository, *testutil.CapturingPublisher) {
	planRepo := testutil.NewMockDCAPlanRepository()
	tradeRepo := testutil.NewMockTradeRepository()
	accountRepo := testutil.NewMockAccountRepository()
	pub := &testutil.CapturingPublisher{}
	tradeService := NewTradeService(tradeRepo, accountRepo, pub)
	svc := NewDCAService(planRepo, accountRepo, tradeService, &staticQuoteSource{prices: prices}, pub)
	return svc, planRepo, tradeRepo, accountRepo, pub
}

func TestCreatePlan_Validation(t *testing.T) {
	svc, _, _, accountRepo, _ := newDCAFixture(nil)
	addSecuritiesAccount(accountRepo, 1)

	tests := []struct {
		name    string
		input   CreateDCAPlanInput
		wantErr error
	}{
		{
			name:    "empty ticker",
			input:   CreateDCAPlanInput{AccountID: 1, Ticker: " ", Amount: decimal.NewFromInt(100000), DayOfMonth: 1},
			wantErr: domain.ErrNameRequired,
		},
		{
			name:    "zero amount",
			input:   CreateDCAPlanInput{AccountID: 1, Ticker: "VOO", Amount: decimal.Zero, DayOfMonth: 1},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "day out of range",
			input:   CreateDCAPlanInput{AccountID: 1, Ticker: "VOO", Amount: decimal.NewFromInt(100), DayOfMonth: 32},
			wantErr: domain.ErrInvalidSchedule,
		},
		{
			name:    "hour out of range",
			input:   CreateDCAPlanInput{AccountID: 1, Ticker: "VOO", Amount: decimal.NewFromInt(100), DayOfMonth: 1, Hour: 24},
			wantErr: domain.ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePlan(1, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreatePlan_RequiresSecuritiesAccount(t *testing.T) {
	svc, _, _, accountRepo, _ := newDCAFixture(nil)
	accountRepo.AddAccount(&domain.Account{
		ID: 1, WorkspaceID: 1, Name: "Checking",
		AccountType: domain.AccountTypeChecking, Currency: domain.CurrencyKRW,
	})

	_, err := svc.CreatePlan(1, CreateDCAPlanInput{
		AccountID: 1, Ticker: "VOO", Amount: decimal.NewFromInt(100), DayOfMonth: 1,
	})
	if !errors.Is(err, domain.ErrNotSecuritiesAccount) {
		t.Errorf("Expected ErrNotSecuritiesAccount, got %v", err)
	}
}

func TestExecutePlan_RecordsBuyAndMarksRun(t *testing.T) {
	svc, planRepo, tradeRepo, accountRepo, pub := newDCAFixture(map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(500),
	})
	addSecuritiesAccount(accountRepo, 1)

	plan, err := svc.CreatePlan(1, CreateDCAPlanInput{
		AccountID: 1, Ticker: "VOO",
		Amount:     decimal.NewFromInt(1000),
		DayOfMonth: 1, Enabled: true,
	})
	if err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	result, err := svc.ExecutePlan(context.Background(), plan, now)
	if err != nil {
		t.Fatalf("ExecutePlan() error = %v", err)
	}

	// 1000 / 500 = 2 shares
	if !result.Trade.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected quantity 2, got %s", result.Trade.Quantity)
	}
	if result.Trade.Side != domain.TradeSideBuy {
		t.Errorf("Expected buy trade, got %s", result.Trade.Side)
	}
	if !result.Trade.Price.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected trade priced at quote 500, got %s", result.Trade.Price)
	}

	stored, _ := planRepo.GetByID(1, plan.ID)
	if stored.LastRunAt == nil || !stored.LastRunAt.Equal(now) {
		t.Error("Expected plan marked as run")
	}
	if len(tradeRepo.Trades) != 1 {
		t.Errorf("Expected 1 trade recorded, got %d", len(tradeRepo.Trades))
	}
	if evt := pub.LastEvent(); evt == nil || evt.Type != "dca_plan.executed" {
		t.Errorf("Expected dca_plan.executed event, got %v", evt)
	}
}

func TestExecutePlan_BuysWholeShares(t *testing.T) {
	svc, _, _, accountRepo, _ := newDCAFixture(map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(300),
	})
	addSecuritiesAccount(accountRepo, 1)

	plan, _ := svc.CreatePlan(1, CreateDCAPlanInput{
		AccountID: 1, Ticker: "VOO",
		Amount:     decimal.NewFromInt(1000),
		DayOfMonth: 1, Enabled: true,
	})

	result, err := svc.ExecutePlan(context.Background(), plan, time.Now())
	if err != nil {
		t.Fatalf("ExecutePlan() error = %v", err)
	}

	// 1000 / 300 floors to 3 whole shares
	if !result.Trade.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected whole-share quantity 3, got %s", result.Trade.Quantity)
	}
}

func TestExecutePlan_ZeroWholeShares(t *testing.T) {
	svc, planRepo, tradeRepo, accountRepo, _ := newDCAFixture(map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(500),
	})
	addSecuritiesAccount(accountRepo, 1)

	plan, _ := svc.CreatePlan(1, CreateDCAPlanInput{
		AccountID: 1, Ticker: "VOO",
		Amount:     decimal.NewFromInt(100),
		DayOfMonth: 1, Enabled: true,
	})

	_, err := svc.ExecutePlan(context.Background(), plan, time.Now())
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("Expected ErrInvalidQuantity, got %v", err)
	}

	if len(tradeRepo.Trades) != 0 {
		t.Errorf("Expected no trade recorded, got %d", len(tradeRepo.Trades))
	}
	stored, _ := planRepo.GetByID(1, plan.ID)
	if stored.LastRunAt != nil {
		t.Error("Expected lastRunAt untouched so the plan retries next poll")
	}
}

func TestExecutePlan_QuoteUnavailable(t *testing.T) {
	svc, _, tradeRepo, accountRepo, _ := newDCAFixture(nil)
	addSecuritiesAccount(accountRepo, 1)

	plan, _ := svc.CreatePlan(1, CreateDCAPlanInput{
		AccountID: 1, Ticker: "VOO",
		Amount:     decimal.NewFromInt(1000),
		DayOfMonth: 1, Enabled: true,
	})

	_, err := svc.ExecutePlan(context.Background(), plan, time.Now())
	if !errors.Is(err, domain.ErrQuoteNotFound) {
		t.Errorf("Expected ErrQuoteNotFound, got %v", err)
	}
	if len(tradeRepo.Trades) != 0 {
		t.Error("Expected no trade recorded when pricing fails")
	}
}

func TestRunDuePlans_ExecutesOnlyDue(t *testing.T) {
	svc, planRepo, tradeRepo, accountRepo, _ := newDCAFixture(map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(500),
		"QQQ": decimal.NewFromInt(400),
	})
	addSecuritiesAccount(accountRepo, 1)

	now := time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	// Due: scheduled day 10, last ran in April
	planRepo.AddPlan(&domain.DCAPlan{
		ID: 1, WorkspaceID: 1, AccountID: 1, Ticker: "VOO",
		Amount: decimal.NewFromInt(1000), DayOfMonth: 10, Hour: 9,
		Enabled: true, LastRunAt: &lastMonth,
	})
	// Not due: already ran this month
	planRepo.AddPlan(&domain.DCAPlan{
		ID: 2, WorkspaceID: 1, AccountID: 1, Ticker: "QQQ",
		Amount: decimal.NewFromInt(1000), DayOfMonth: 10, Hour: 9,
		Enabled: true, LastRunAt: &thisMonth,
	})
	// Not due: disabled
	planRepo.AddPlan(&domain.DCAPlan{
		ID: 3, WorkspaceID: 1, AccountID: 1, Ticker: "VOO",
		Amount: decimal.NewFromInt(1000), DayOfMonth: 10, Hour: 9,
		Enabled: false,
	})

	executed, err := svc.RunDuePlans(context.Background(), now)
	if err != nil {
		t.Fatalf("RunDuePlans() error = %v", err)
	}

	if executed != 1 {
		t.Errorf("Expected 1 plan executed, got %d", executed)
	}
	if len(tradeRepo.Trades) != 1 {
		t.Errorf("Expected 1 trade, got %d", len(tradeRepo.Trades))
	}
}

func TestRunDuePlans_FailureIsolation(t *testing.T) {
	// First plan's ticker has no quote, second must still execute
	svc, planRepo, tradeRepo, accountRepo, _ := newDCAFixture(map[string]decimal.Decimal{
		"QQQ": decimal.NewFromInt(400),
	})
	addSecuritiesAccount(accountRepo, 1)

	now := time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC)
	planRepo.AddPlan(&domain.DCAPlan{
		ID: 1, WorkspaceID: 1, AccountID: 1, Ticker: "BROKEN",
		Amount: decimal.NewFromInt(1000), DayOfMonth: 10, Enabled: true,
	})
	planRepo.AddPlan(&domain.DCAPlan{
		ID: 2, WorkspaceID: 1, AccountID: 1, Ticker: "QQQ",
		Amount: decimal.NewFromInt(1000), DayOfMonth: 10, Enabled: true,
	})

	executed, err := svc.RunDuePlans(context.Background(), now)
	if err != nil {
		t.Fatalf("RunDuePlans() error = %v", err)
	}

	if executed != 1 {
		t.Errorf("Expected 1 plan executed despite the failure, got %d", executed)
	}
	if len(tradeRepo.Trades) != 1 {
		t.Errorf("Expected 1 trade, got %d", len(tradeRepo.Trades))
	}
}
