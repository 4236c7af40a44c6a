package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/testutil"
)

type fixedFXSource struct {
	rates map[string]decimal.Decimal
}

func (f *fixedFXSource) GetFXRate(ctx context.Context, workspaceID int32, base, quote domain.Currency) (*domain.FXRate, error) {
	if rate, ok := f.rates[string(base)+string(quote)]; ok {
		return &domain.FXRate{Base: base, Quote: quote, Rate: rate, UpdatedAt: time.Now()}, nil
	}
	return nil, domain.ErrQuoteNotFound
}

func newBalanceFixture() (*BalanceService, *testutil.MockAccountRepository, *testutil.MockLedgerRepository, *testutil.MockTradeRepository) {
	accountRepo := testutil.NewMockAccountRepository()
	ledgerRepo := testutil.NewMockLedgerRepository()
	tradeRepo := testutil.NewMockTradeRepository()
	fx := &fixedFXSource{rates: map[string]decimal.Decimal{
		"USDKRW": decimal.NewFromInt(1400),
	}}
	return NewBalanceService(accountRepo, ledgerRepo, tradeRepo, fx), accountRepo, ledgerRepo, tradeRepo
}

func krwAccount(id int32, accountType domain.AccountType, initial int64) *domain.Account {
	return &domain.Account{
		ID:             id,
		WorkspaceID:    1,
		Name:           "Account",
		AccountType:    accountType,
		Currency:       domain.CurrencyKRW,
		InitialBalance: decimal.NewFromInt(initial),
	}
}

func TestGetBalances_FoldsEntries(t *testing.T) {
	svc, accountRepo, ledgerRepo, _ := newBalanceFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeChecking, 1000000))

	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	out := domain.TransferOut
	entries := []*domain.LedgerEntry{
		{ID: 1, WorkspaceID: 1, AccountID: 1, Kind: domain.EntryKindIncome, Category: "Salary", Amount: decimal.NewFromInt(3000000), EntryDate: day},
		{ID: 2, WorkspaceID: 1, AccountID: 1, Kind: domain.EntryKindExpense, Category: "Food", Amount: decimal.NewFromInt(250000), EntryDate: day},
		{ID: 3, WorkspaceID: 1, AccountID: 1, Kind: domain.EntryKindTransfer, Direction: &out, Category: "Transfer", Amount: decimal.NewFromInt(500000), EntryDate: day},
	}
	for _, e := range entries {
		ledgerRepo.AddEntry(e)
	}

	balances, err := svc.GetBalances(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("Expected 1 balance, got %d", len(balances))
	}

	// 1,000,000 + 3,000,000 - 250,000 - 500,000
	want := decimal.NewFromInt(3250000)
	if !balances[0].Balance.Equal(want) {
		t.Errorf("Expected balance %s, got %s", want, balances[0].Balance)
	}
}

func TestGetBalances_IncludesCashAdjustment(t *testing.T) {
	svc, accountRepo, _, _ := newBalanceFixture()
	account := krwAccount(1, domain.AccountTypeSavings, 500000)
	account.CashAdjustment = decimal.NewFromInt(1523)
	accountRepo.AddAccount(account)

	balances, err := svc.GetBalances(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}

	want := decimal.NewFromInt(501523)
	if !balances[0].Balance.Equal(want) {
		t.Errorf("Expected balance %s, got %s", want, balances[0].Balance)
	}
}

func TestGetBalances_IncludesTradeCash(t *testing.T) {
	svc, accountRepo, _, tradeRepo := newBalanceFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeSecurities, 10000000))

	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 1, WorkspaceID: 1, AccountID: 1, Ticker: "005930",
		Side: domain.TradeSideBuy, TradeDate: time.Now(),
		Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(70000),
		Fee: decimal.NewFromInt(350), Currency: domain.CurrencyKRW,
	})
	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 2, WorkspaceID: 1, AccountID: 1, Ticker: "005930",
		Side: domain.TradeSideSell, TradeDate: time.Now(),
		Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(72000),
		Fee: decimal.NewFromInt(180), Currency: domain.CurrencyKRW,
	})

	balances, err := svc.GetBalances(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}

	// 10,000,000 - (10x70,000 + 350) + (5x72,000 - 180)
	want := decimal.NewFromInt(10000000 - 700350 + 359820)
	if !balances[0].Balance.Equal(want) {
		t.Errorf("Expected balance %s, got %s", want, balances[0].Balance)
	}
}

func TestGetBalances_ConvertsForeignTradeCash(t *testing.T) {
	svc, accountRepo, _, tradeRepo := newBalanceFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeSecurities, 0))

	// USD trade cash in a KRW account converts at 1400
	tradeRepo.AddTrade(&domain.StockTrade{
		ID: 1, WorkspaceID: 1, AccountID: 1, Ticker: "AAPL",
		Side: domain.TradeSideSell, TradeDate: time.Now(),
		Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(100),
		Currency: domain.CurrencyUSD,
	})

	balances, err := svc.GetBalances(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}

	want := decimal.NewFromInt(200 * 1400)
	if !balances[0].Balance.Equal(want) {
		t.Errorf("Expected balance %s, got %s", want, balances[0].Balance)
	}
}

func TestGetBalances_ThroughDateExcludesLaterActivity(t *testing.T) {
	svc, accountRepo, ledgerRepo, _ := newBalanceFixture()
	accountRepo.AddAccount(krwAccount(1, domain.AccountTypeChecking, 0))

	ledgerRepo.AddEntry(&domain.LedgerEntry{
		ID: 1, WorkspaceID: 1, AccountID: 1, Kind: domain.EntryKindIncome,
		Category: "Salary", Amount: decimal.NewFromInt(100),
		EntryDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	ledgerRepo.AddEntry(&domain.LedgerEntry{
		ID: 2, WorkspaceID: 1, AccountID: 1, Kind: domain.EntryKindIncome,
		Category: "Salary", Amount: decimal.NewFromInt(900),
		EntryDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})

	through := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	balances, err := svc.GetBalances(context.Background(), 1, through)
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}

	if !balances[0].Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance 100 as of January, got %s", balances[0].Balance)
	}
}

func TestGetBalance_AccountNotFound(t *testing.T) {
	svc, _, _, _ := newBalanceFixture()

	_, err := svc.GetBalance(context.Background(), 1, 42)
	if err == nil {
		t.Error("Expected error for unknown account")
	}
}
