package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/testutil"
)

func newNetWorthFixture() (*NetWorthService, *testutil.MockAccountRepository, *testutil.MockLedgerRepository, *testutil.MockTradeRepository, *staticQuoteSource) {
	accountRepo := testutil.NewMockAccountRepository()
	ledgerRepo := testutil.NewMockLedgerRepository()
	tradeRepo := testutil.NewMockTradeRepository()
	quotes := &staticQuoteSource{prices: map[string]decimal.Decimal{}}
	fx := &fixedFXSource{rates: map[string]decimal.Decimal{
		"USDKRW": decimal.NewFromInt(1400),
	}}
	balances := NewBalanceService(accountRepo, ledgerRepo, tradeRepo, fx)
	positions := NewPositionService(tradeRepo, quotes)
	svc := NewNetWorthService(accountRepo, ledgerRepo, tradeRepo, balances, positions, quotes, fx)
	return svc, accountRepo, ledgerRepo, tradeRepo, quotes
}

func TestGetSeries_StartsAtFirstActivity(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := newNetWorthFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeChecking, 1000000))

	now := time.Now().UTC()
	twoMonthsAgo := time.Date(now.Year(), now.Month()-2, 15, 0, 0, 0, 0, time.UTC)
	ledgerRepo.AddEntry(&domain.LedgerEntry{
		ID: 1, WorkspaceID: 1, AccountID: 1, Kind: domain.EntryKindIncome,
		Category: "Salary", Amount: decimal.NewFromInt(500000),
		EntryDate: twoMonthsAgo,
	})

	series, err := svc.GetSeries(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetSeries() error = %v", err)
	}

	if len(series) != 3 {
		t.Fatalf("Expected 3 monthly points, got %d", len(series))
	}
	if series[0].Year != twoMonthsAgo.Year() || series[0].Month != int(twoMonthsAgo.Month()) {
		t.Errorf("Expected series to start at first activity month, got %d-%d", series[0].Year, series[0].Month)
	}

	want := decimal.NewFromInt(1500000)
	for i, point := range series {
		if !point.Cash.Equal(want) {
			t.Errorf("Point %d: expected cash %s, got %s", i, want, point.Cash)
		}
		if !point.NetWorth.Equal(want) {
			t.Errorf("Point %d: expected net worth %s, got %s", i, want, point.NetWorth)
		}
	}
}

func TestGetSeries_EmptyWorkspaceHasOnePoint(t *testing.T) {
	svc, _, _, _, _ := newNetWorthFixture()

	series, err := svc.GetSeries(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetSeries() error = %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("Expected 1 point for empty workspace, got %d", len(series))
	}
	if !series[0].NetWorth.IsZero() {
		t.Errorf("Expected zero net worth, got %s", series[0].NetWorth)
	}
}

func TestGetCurrent_CardBalanceCountsAgainst(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := newNetWorthFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeChecking, 1000000))
	accountRepo.AddAccount(&domain.Account{
		ID: 2, WorkspaceID: 1, Name: "Card",
		AccountType: domain.AccountTypeCard, Currency: domain.CurrencyKRW,
	})

	ledgerRepo.AddEntry(&domain.LedgerEntry{
		ID: 1, WorkspaceID: 1, AccountID: 2, Kind: domain.EntryKindExpense,
		Category: "Shopping", Amount: decimal.NewFromInt(200000),
		EntryDate: time.Now().UTC(),
	})

	point, err := svc.GetCurrent(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCurrent() error = %v", err)
	}

	if !point.Cash.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Expected cash 1000000, got %s", point.Cash)
	}
	if !point.Liabilities.Equal(decimal.NewFromInt(-200000)) {
		t.Errorf("Expected liabilities -200000, got %s", point.Liabilities)
	}
	if !point.NetWorth.Equal(decimal.NewFromInt(800000)) {
		t.Errorf("Expected net worth 800000, got %s", point.NetWorth)
	}
}

func TestGetCurrent_ValuesHoldingsAtMarket(t *testing.T) {
	svc, accountRepo, _, tradeRepo, quotes := newNetWorthFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeSecurities, 1000000))
	quotes.prices["005930"] = decimal.NewFromInt(80000)

	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 1, WorkspaceID: 1, AccountID: 1, Ticker: "005930",
		Side: domain.TradeSideBuy, TradeDate: time.Now().UTC(),
		Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(70000),
		Currency: domain.CurrencyKRW,
	})

	point, err := svc.GetCurrent(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCurrent() error = %v", err)
	}

	// Cash: 1,000,000 - 700,000 spent on the buy
	if !point.Cash.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("Expected cash 300000, got %s", point.Cash)
	}
	// Holdings: 10 shares at the 80,000 quote
	if !point.Investments.Equal(decimal.NewFromInt(800000)) {
		t.Errorf("Expected investments 800000, got %s", point.Investments)
	}
	if !point.NetWorth.Equal(decimal.NewFromInt(1100000)) {
		t.Errorf("Expected net worth 1100000, got %s", point.NetWorth)
	}
}

func TestGetCurrent_ConvertsUSDToBase(t *testing.T) {
	svc, accountRepo, _, _, _ := newNetWorthFixture()
	accountRepo.AddAccount(&domain.Account{
		ID: 1, WorkspaceID: 1, Name: "US Brokerage",
		AccountType:    domain.AccountTypeSecurities,
		Currency:       domain.CurrencyUSD,
		InitialBalance: decimal.NewFromInt(1000),
	})

	point, err := svc.GetCurrent(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCurrent() error = %v", err)
	}

	want := decimal.NewFromInt(1400000)
	if !point.Cash.Equal(want) {
		t.Errorf("Expected cash %s in KRW, got %s", want, point.Cash)
	}
}

func TestGetCurrent_NoQuoteFallsBackToCost(t *testing.T) {
	svc, accountRepo, _, tradeRepo, _ := newNetWorthFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeSecurities, 1000000))

	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 1, WorkspaceID: 1, AccountID: 1, Ticker: "005930",
		Side: domain.TradeSideBuy, TradeDate: time.Now().UTC(),
		Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(70000),
		Currency: domain.CurrencyKRW,
	})

	point, err := svc.GetCurrent(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCurrent() error = %v", err)
	}
	if !point.Investments.Equal(decimal.NewFromInt(700000)) {
		t.Errorf("Expected investments valued at cost 700000, got %s", point.Investments)
	}
}
